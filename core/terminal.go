package core

import (
	"io"
	"regexp"

	"github.com/juju/ratelimit"
)

var crlf = regexp.MustCompile(`\r?\n`)

// crlfWriter ends lines with \r\n so output lines up on raw terminals.
type crlfWriter struct {
	w io.Writer
}

// NewCRLFWriter translates newlines written to w into \r\n.
func NewCRLFWriter(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(crlf.ReplaceAll(p, []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Throttle limits writes to w to bytesPerSecond, emulating a slow console.
// A rate of 0 or less leaves w unthrottled.
func Throttle(w io.Writer, bytesPerSecond int64) io.Writer {
	if bytesPerSecond <= 0 {
		return w
	}
	bucket := ratelimit.NewBucketWithRate(float64(bytesPerSecond), bytesPerSecond)
	return ratelimit.Writer(w, bucket)
}
