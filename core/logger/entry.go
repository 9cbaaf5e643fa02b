package logger

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event types.
const (
	EventBoot       = "boot"
	EventLogin      = "login"
	EventCommand    = "command"
	EventTTYLog     = "tty_log"
	EventSessionEnd = "session_end"
)

// Login results.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRootRefused = "root_refused"
)

const (
	keyTimestamp = "timestamp_micros"
	keySession   = "session_id"
	keyEvent     = "event"
)

// LogEntry is one logged event.
type LogEntry struct {
	TimestampMicros int64
	SessionID       string
	Event           string
	Fields          map[string]interface{}
}

// Field returns a string field, or "" if it isn't set.
func (le *LogEntry) Field(name string) string {
	if v, ok := le.Fields[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Time returns when the event happened.
func (le *LogEntry) Time() time.Time {
	return time.UnixMicro(le.TimestampMicros)
}

// MarshalJSON encodes the entry as a flat JSON object.
func (le *LogEntry) MarshalJSON() ([]byte, error) {
	raw := make(map[string]interface{}, len(le.Fields)+3)
	for k, v := range le.Fields {
		raw[k] = v
	}
	raw[keyTimestamp] = le.TimestampMicros
	raw[keySession] = le.SessionID
	raw[keyEvent] = le.Event

	st, err := structpb.NewStruct(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", le.Event, err)
	}
	return protojson.Marshal(st)
}

// UnmarshalJSON decodes an entry written by MarshalJSON.
func (le *LogEntry) UnmarshalJSON(data []byte) error {
	var st structpb.Struct
	if err := protojson.Unmarshal(data, &st); err != nil {
		return err
	}

	fields := st.AsMap()
	if ts, ok := fields[keyTimestamp].(float64); ok {
		le.TimestampMicros = int64(ts)
	}
	le.SessionID, _ = fields[keySession].(string)
	le.Event, _ = fields[keyEvent].(string)

	delete(fields, keyTimestamp)
	delete(fields, keySession)
	delete(fields, keyEvent)
	le.Fields = fields
	return nil
}
