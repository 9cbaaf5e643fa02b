// Package ttylog records and replays the console of a session.
package ttylog

import (
	"io"
	"log"
	"sync"
	"time"
)

// FD identifies the stream an event was seen on.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is one chunk of console traffic.
type Entry struct {
	TimestampMicros int64
	Fd              FD
	Data            []byte
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(e)
	}
}

// NewClientOutput writes stdout and stderr to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.Fd == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder tees console streams into a LogSink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time
}

// NewRecorder creates a recorder that forwards all events to output.
func NewRecorder(output LogSink) *Recorder {
	return &Recorder{output: output, now: time.Now}
}

func (r *Recorder) record(fd FD, data []byte) {
	if len(data) == 0 {
		return
	}
	e := &Entry{
		TimestampMicros: r.now().UnixMicro(),
		Fd:              fd,
		Data:            append([]byte(nil), data...),
	}

	r.mutex.Lock()
	err := r.output(e)
	r.mutex.Unlock()
	if err != nil {
		log.Print(err)
	}
}

// Reader records everything read from rd as stdin.
func (r *Recorder) Reader(rd io.Reader) io.Reader {
	return &recordingReader{r: r, wrapped: rd}
}

// Writer records everything written to w on the given stream.
func (r *Recorder) Writer(fd FD, w io.Writer) io.Writer {
	return &recordingWriter{r: r, fd: fd, wrapped: w}
}

type recordingReader struct {
	r       *Recorder
	wrapped io.Reader
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.wrapped.Read(p)
	rr.r.record(FDStdin, p[:n])
	return n, err
}

type recordingWriter struct {
	r       *Recorder
	fd      FD
	wrapped io.Writer
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	n, err := rw.wrapped.Write(p)
	rw.r.record(rw.fd, p[:n])
	return n, err
}
