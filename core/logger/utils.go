package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/josephlewis42/dooros/core/machine"
)

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs.
type Logger struct {
	Record LogRecorder
	now    func() time.Time
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. It's safe for concurrent use.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) record(sessionID, event string, fields map[string]interface{}) error {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return l.Record(&LogEntry{
		TimestampMicros: now().UnixMicro(),
		SessionID:       sessionID,
		Event:           event,
		Fields:          fields,
	})
}

// NewSession creates a logger with a random session ID.
func (l *Logger) NewSession() *SessionLogger {
	return l.Session(fmt.Sprintf("%d", rand.Uint64()))
}

// Session creates a logger with the given session ID.
func (l *Logger) Session(id string) *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: id}
}

// Sessionless creates a logger for events outside of a session.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ machine.Observer = (*SessionLogger)(nil)

// ID returns the session ID.
func (l *SessionLogger) ID() string {
	return l.sessionID
}

// Record logs an event with the session ID.
func (l *SessionLogger) Record(event string, fields map[string]interface{}) error {
	return l.record(l.sessionID, event, fields)
}

// Boot logs a machine starting.
func (l *SessionLogger) Boot(m *machine.Machine) error {
	return l.Record(EventBoot, map[string]interface{}{
		"machine":    m.Name(),
		"os_version": m.OSVersion(),
	})
}

// LoginAttempt logs a login and its result.
func (l *SessionLogger) LoginAttempt(username, remoteAddr, result string) error {
	return l.Record(EventLogin, map[string]interface{}{
		"username":    username,
		"remote_addr": remoteAddr,
		"result":      result,
	})
}

// OpenTTYLog logs the name of the session's terminal recording.
func (l *SessionLogger) OpenTTYLog(name string) error {
	return l.Record(EventTTYLog, map[string]interface{}{"name": name})
}

// End logs the session ending.
func (l *SessionLogger) End(reason string) error {
	return l.Record(EventSessionEnd, map[string]interface{}{"reason": reason})
}

// RanCommand implements machine.Observer.
func (l *SessionLogger) RanCommand(user, verb, args string, sig machine.Signal) {
	status := string(sig)
	if sig == machine.OK {
		status = "OK"
	}
	if err := l.Record(EventCommand, map[string]interface{}{
		"user":   user,
		"verb":   verb,
		"args":   args,
		"signal": status,
	}); err != nil {
		log.Printf("recording command: %v", err)
	}
}
