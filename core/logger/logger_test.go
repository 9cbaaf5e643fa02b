package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/dooros/core/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	l := NewJsonLinesLogRecorder(buf)
	l.now = func() time.Time { return time.UnixMicro(1234) }
	return l
}

func TestLogEntry_JSON(t *testing.T) {
	le := &LogEntry{
		TimestampMicros: 1630000000000000,
		SessionID:       "42",
		Event:           EventCommand,
		Fields:          map[string]interface{}{"verb": "ls", "args": "-a"},
	}

	data, err := json.Marshal(le)
	require.NoError(t, err)

	var got LogEntry
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, le, &got)
	assert.Equal(t, "ls", got.Field("verb"))
	assert.Equal(t, "", got.Field("missing"))
	assert.Equal(t, int64(1630000000000000), got.Time().UnixMicro())
}

func TestSessionLogger(t *testing.T) {
	var buf bytes.Buffer
	session := newTestLogger(&buf).Session("7")

	m := machine.New(nil, machine.Options{Name: "door1"})
	require.NoError(t, session.Boot(m))
	require.NoError(t, session.LoginAttempt("alice", "10.0.0.1:22", LoginSuccess))
	session.RanCommand("alice", "ls", "/home", machine.OK)
	session.RanCommand("alice", "cat", "nope", machine.SigFileNotFound)
	require.NoError(t, session.OpenTTYLog("7.cast"))
	require.NoError(t, session.End("exit"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)

	var entries []*LogEntry
	require.NoError(t, ReadJSONLinesLog(&buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))
	require.Len(t, entries, 6)

	assert.Equal(t, EventBoot, entries[0].Event)
	assert.Equal(t, "door1", entries[0].Field("machine"))
	assert.Equal(t, "7", entries[1].SessionID)
	assert.Equal(t, int64(1234), entries[1].TimestampMicros)
	assert.Equal(t, "OK", entries[2].Field("signal"))
	assert.Equal(t, "FILE_NOT_FOUND_ERROR", entries[3].Field("signal"))
}

func TestReadJSONLinesLog_errors(t *testing.T) {
	err := ReadJSONLinesLog(strings.NewReader("{\"event\": \"boot\"}\n\nnot json\n"), func(*LogEntry) {})
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	a := l.Session("a")
	a.LoginAttempt("alice", "", LoginSuccess)
	a.RanCommand("alice", "ls", "", machine.OK)
	a.RanCommand("alice", "cat", "nope", machine.SigFileNotFound)
	a.RanCommand("alice", "cat", "nope", machine.SigFileNotFound)
	a.End("exit")

	b := l.Session("b")
	b.LoginAttempt("root", "", LoginRootRefused)
	l.Sessionless().Record(EventBoot, map[string]interface{}{"machine": "door1"})

	var report Report
	var interactions InteractionReport
	require.NoError(t, ReadJSONLinesLog(&buf, func(le *LogEntry) {
		report.Update(le)
		interactions.Update(le)
	}))

	assert.Equal(t, 7, report.LogEntries)
	assert.Equal(t, 3, report.Events.Count(EventCommand))
	assert.Equal(t, 2, report.RunCommand.Verbs.Count("cat"))
	assert.Equal(t, 1, report.RunCommand.Signals.Count("OK"))
	assert.Equal(t, 1, report.LoginAttempt.Results.Count(LoginRootRefused))
	assert.Equal(t, 1, report.Sessions.Count)
	assert.Equal(t, 1, report.Boots.Count("door1"))

	out, err := json.Marshal(&report)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"errors":[{"count":2,"event":{"signal":"FILE_NOT_FOUND_ERROR","verb":"cat"}}]`)

	session, ok := interactions.Session("a")
	require.True(t, ok)
	assert.Equal(t, "alice", session.Login.Username)
	assert.Equal(t, []string{"ls", "cat nope", "cat nope"}, session.Commands)
	_, ok = interactions.Session("")
	assert.False(t, ok)
}

func TestPathCounter(t *testing.T) {
	ctr := NewPathCounter("a", "b")
	ctr.Increment("x", "y")
	ctr.Increment("x", "y")
	ctr.Increment("p", "q")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"count":2,"event":{"a":"x","b":"y"}},{"count":1,"event":{"a":"p","b":"q"}}]`, string(out))
	assert.Panics(t, func() { ctr.Increment("x") })
}
