package ttylog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// AsciicastFileExt holds the suggested file extension for asciicast files.
const AsciicastFileExt = "cast"

const asciicastVersion = 2

// AsciicastHeader is the first line of an asciicast v2 recording.
//
// See: https://github.com/asciinema/asciinema/blob/develop/doc/asciicast-v2.md
type AsciicastHeader struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Title     string            `json:"title,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// Time is when the recording started.
func (h *AsciicastHeader) Time() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// NewAsciicastHeader describes a doorOS console of the given size.
func NewAsciicastHeader(title string, width, height int) AsciicastHeader {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return AsciicastHeader{
		Version: asciicastVersion,
		Width:   width,
		Height:  height,
		Title:   title,
		Env: map[string]string{
			"TERM":  "xterm-256color",
			"SHELL": "doorOS",
		},
	}
}

func writeJSONLine(w io.Writer, structure interface{}) error {
	line, err := json.Marshal(structure)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", line)
	return err
}

// NewAsciicastLogSink creates a LogSink writing asciicast v2. The header is
// written with the first entry, which also sets the recording's start time.
func NewAsciicastLogSink(w io.Writer, header AsciicastHeader) LogSink {
	var (
		started    bool
		firstMicro int64
	)

	return func(entry *Entry) error {
		if !started {
			started = true
			firstMicro = entry.TimestampMicros
			header.Timestamp = time.UnixMicro(firstMicro).Unix()
			if err := writeJSONLine(w, &header); err != nil {
				return err
			}
		}

		// Asciicast doesn't support stderr so it's collapsed into stdout.
		eventType := "o"
		if entry.Fd == FDStdin {
			eventType = "i"
		}
		return writeJSONLine(w, &asciicastEvent{
			TimeSeconds: microsecondsToSeconds(entry.TimestampMicros - firstMicro),
			EventType:   eventType,
			EventData:   string(entry.Data),
		})
	}
}

// AsciicastLogSource reads entries from an asciicast v2 recording. Entry
// timestamps are relative to the start of the recording.
type AsciicastLogSource struct {
	r      *bufio.Reader
	header *AsciicastHeader
	err    error
}

var _ LogSource = (*AsciicastLogSource)(nil)

// NewAsciicastLogSource reads log events from an Asciicast formatted file.
func NewAsciicastLogSource(r io.Reader) *AsciicastLogSource {
	return &AsciicastLogSource{r: bufio.NewReader(r)}
}

// Header reads the recording's header.
func (log *AsciicastLogSource) Header() (*AsciicastHeader, error) {
	if log.header != nil || log.err != nil {
		return log.header, log.err
	}

	line, err := log.r.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		log.err = err
		return nil, err
	}
	var header AsciicastHeader
	if err := json.Unmarshal(line, &header); err != nil {
		log.err = fmt.Errorf("malformed asciicast header: %w", err)
		return nil, log.err
	}
	if header.Version != asciicastVersion {
		log.err = fmt.Errorf("unsupported asciicast version %d", header.Version)
		return nil, log.err
	}
	log.header = &header
	return log.header, nil
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (log *AsciicastLogSource) Next() (*Entry, error) {
	if _, err := log.Header(); err != nil {
		return nil, err
	}

	for {
		line, err := log.r.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return nil, err
		}
		if len(line) == 1 {
			// Skip blank lines
			continue
		}

		var event asciicastEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, err
		}

		var fd FD
		switch event.EventType {
		case "o":
			fd = FDStdout
		case "i":
			fd = FDStdin
		default:
			// Resizes and markers don't replay.
			continue
		}

		return &Entry{
			TimestampMicros: secondsToMicroseconds(event.TimeSeconds),
			Fd:              fd,
			Data:            []byte(event.EventData),
		}, nil
	}
}

// asciicastEvent is a [time, type, data] event line.
type asciicastEvent struct {
	TimeSeconds float64
	EventType   string
	EventData   string
}

func (e *asciicastEvent) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if count := len(fields); count != 3 {
		return fmt.Errorf("malformed line, expected 3 entries got %d", count)
	}

	for i, target := range []interface{}{&e.TimeSeconds, &e.EventType, &e.EventData} {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return fmt.Errorf("malformed data in line %s: %w", data, err)
		}
	}
	return nil
}

func (e *asciicastEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeSeconds, e.EventType, e.EventData})
}

func microsecondsToSeconds(microseconds int64) (seconds float64) {
	return (float64(microseconds) * float64(time.Microsecond)) / float64(time.Second)
}

func secondsToMicroseconds(seconds float64) (microseconds int64) {
	return int64(float64(seconds)*float64(time.Second)) / int64(time.Microsecond)
}
