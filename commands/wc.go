package commands

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

type wcCount struct {
	bytes int
	lines int
	chars int
	words int
	name  string

	inSpace bool
}

func (w *wcCount) Write(data []byte) (int, error) {
	for _, c := range data {
		isFirstByte := w.bytes == 0
		w.bytes++

		// Assume UTF-8 characters. Bytes following the leading byte always
		// have MSB of 0b10 indicating they're part of a previous character.
		if c < 0b10000000 || c > 0b10111111 {
			w.chars++
		}

		if c == '\n' {
			w.lines++
		}

		if unicode.IsSpace(rune(c)) {
			w.inSpace = true
		} else {
			if w.inSpace || isFirstByte {
				w.words++
			}
			w.inSpace = false
		}
	}

	return len(data), nil
}

// newWcCount counts content, the last line counts even without a trailing
// newline.
func newWcCount(name, content string) *wcCount {
	out := &wcCount{name: name}
	out.Write([]byte(content))
	if content != "" && !strings.HasSuffix(content, "\n") {
		out.lines++
	}
	return out
}

func (w *wcCount) Increment(other *wcCount) {
	w.bytes += other.bytes
	w.chars += other.chars
	w.lines += other.lines
	w.words += other.words
}

// Wc counts the lines, words and bytes of files. Without files it counts
// the lines waiting in the input stream.
func Wc(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "wc [-c|-m] [-lw] [FILE...]",
		Short: "Count the newlines, words, and bytes in each file or the piped input.",
	}

	opts := cmd.Flags()
	writeLines := opts.BoolLong("l", 'l', "write the number of newlines in each file")
	writeWords := opts.BoolLong("w", 'w', "write the number of words in each file")
	writeBytes := opts.BoolLong("c", 'c', "write the number of bytes in each file")
	writeChars := opts.BoolLong("m", 'm', "write the number of characters in each file")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		anyPicked := *writeLines || *writeWords || *writeBytes || *writeChars
		nonePicked := !anyPicked

		var cols []func(*wcCount) string
		if *writeLines || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.lines) })
		}
		if *writeWords || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.words) })
		}
		if *writeBytes || nonePicked {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.bytes) })
		}
		if *writeChars {
			cols = append(cols, func(w *wcCount) string { return fmt.Sprint(w.chars) })
		}

		display := func(count *wcCount) string {
			var fields []string
			for _, col := range cols {
				fields = append(fields, col(count))
			}
			return strings.Join(fields, " ")
		}

		files := cmd.Operands()
		if len(files) == 0 {
			input := m.InputStream()
			m.ReplaceInputStream(nil)
			return expr.Str(display(newWcCount("", strings.Join(input, "\n")))), machine.OK
		}

		cols = append(cols, func(w *wcCount) string { return w.name })

		var out []string
		total := &wcCount{name: "total"}
		for _, path := range files {
			content, sig := ReadContent(m, path)
			if sig != machine.OK {
				return nil, sig
			}
			count := newWcCount(path, content)
			total.Increment(count)
			out = append(out, display(count))
		}
		if len(files) > 1 {
			out = append(out, display(total))
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Wc

func init() {
	mustAddVerb("wc", &machine.Command{
		Use:           "wc [-c|-m] [-lw] [FILE...]",
		Short:         "Count the newlines, words, and bytes in each file or the piped input.",
		ConsumesInput: true,
		Run:           Wc,
	})
}
