package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCRLFWriter(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"no newline":    {"prompt $ ", "prompt $ "},
		"newline":       {"a\nb\n", "a\r\nb\r\n"},
		"already crlf":  {"a\r\nb", "a\r\nb"},
		"blank lines":   {"\n\n", "\r\n\r\n"},
		"carriage only": {"a\rb", "a\rb"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := NewCRLFWriter(&buf).Write([]byte(tc.in))
			assert.NoError(t, err)
			assert.Equal(t, len(tc.in), n)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestThrottle(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Same(t, &buf, Throttle(&buf, 0))
	})

	t.Run("limits rate", func(t *testing.T) {
		var buf bytes.Buffer
		w := Throttle(&buf, 100)

		start := time.Now()
		_, err := w.Write(bytes.Repeat([]byte("x"), 150))
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
		assert.Equal(t, 150, buf.Len())
	})
}
