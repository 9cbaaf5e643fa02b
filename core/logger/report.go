package logger

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log. Blank lines are
// skipped.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var logEntry LogEntry
		if err := json.Unmarshal([]byte(line), &logEntry); err != nil {
			return err
		}
		handler(&logEntry)
	}
	return scanner.Err()
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Events     StrCounter `json:"events"`

	Boots        StrCounter         `json:"boots"`
	LoginAttempt LoginAttemptReport `json:"login_attempt_report"`
	RunCommand   RunCommandReport   `json:"run_command_report"`
	Sessions     SessionReport      `json:"session_report"`
}

// Update adds an entry to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	r.Events.Increment(le.Event)

	switch le.Event {
	case EventBoot:
		r.Boots.Increment(le.Field("machine"))
	case EventLogin:
		r.LoginAttempt.update(le)
	case EventCommand:
		r.RunCommand.update(le)
	case EventSessionEnd:
		r.Sessions.update(le)
	}
}

type LoginAttemptReport struct {
	// List of usernames and their counts.
	Usernames StrCounter `json:"usernames"`
	// List of login attempt results and their counts.
	Results StrCounter `json:"results"`
}

func (r *LoginAttemptReport) update(le *LogEntry) {
	r.Usernames.Increment(le.Field("username"))
	r.Results.Increment(le.Field("result"))
}

type RunCommandReport struct {
	// Verbs run and their counts.
	Verbs StrCounter `json:"verbs"`
	// Signals returned and their counts, OK for success.
	Signals StrCounter `json:"signals"`
	// Verbs that raised an error, with the error.
	Errors *PathCounter `json:"errors"`
}

func (r *RunCommandReport) update(le *LogEntry) {
	verb, sig := le.Field("verb"), le.Field("signal")
	r.Verbs.Increment(verb)
	r.Signals.Increment(sig)
	if sig != "OK" {
		if r.Errors == nil {
			r.Errors = NewPathCounter("verb", "signal")
		}
		r.Errors.Increment(verb, sig)
	}
}

type SessionReport struct {
	Count   int        `json:"count"`
	Reasons StrCounter `json:"end_reasons"`
}

func (r *SessionReport) update(le *LogEntry) {
	r.Count++
	r.Reasons.Increment(le.Field("reason"))
}

// InteractionReport groups events by session.
type InteractionReport struct {
	// Map of sessionID -> interactions
	interactions map[string]*InteractiveSession
}

type InteractiveSession struct {
	Login struct {
		Username   string `json:"username"`
		RemoteAddr string `json:"remote_addr,omitempty"`
	} `json:"login"`
	TTYLog     string `json:"tty_log,omitempty"`
	LogEntries int    `json:"log_entries"`

	Commands []string `json:"commands"`
}

func (i *InteractiveSession) Update(le *LogEntry) {
	i.LogEntries++

	switch le.Event {
	case EventLogin:
		i.Login.Username = le.Field("username")
		i.Login.RemoteAddr = le.Field("remote_addr")
	case EventCommand:
		i.Commands = append(i.Commands, strings.TrimSpace(le.Field("verb")+" "+le.Field("args")))
	case EventTTYLog:
		i.TTYLog = le.Field("name")
	}
}

func (i *InteractionReport) init() {
	if i.interactions == nil {
		i.interactions = make(map[string]*InteractiveSession)
	}
}

// MarshalJSON implements a custom JSON marshaler.
func (i *InteractionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.interactions)
}

// Session returns the interactions of one session.
func (i *InteractionReport) Session(id string) (*InteractiveSession, bool) {
	i.init()
	s, ok := i.interactions[id]
	return s, ok
}

func (i *InteractionReport) Update(le *LogEntry) {
	i.init()

	sessionID := le.SessionID
	if sessionID == "" {
		return
	}
	report, ok := i.interactions[sessionID]
	if !ok {
		report = &InteractiveSession{}
		i.interactions[sessionID] = report
	}

	report.Update(le)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns how many times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of column tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
