package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Grep prints the lines of files that match a pattern. Without files it
// searches the lines waiting in the input stream.
func Grep(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "grep [-inv] PATTERN [FILE]...",
		Short: "Search files for text matching a pattern.",
	}

	invert := cmd.Flags().Bool('v', "Select lines not matching any of the specified patterns.")
	ignoreCase := cmd.Flags().Bool('i', "Perform pattern matching in searches without regard to case.")
	showLineNumbers := cmd.Flags().Bool('n', "Show line numbers.")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		operands := cmd.Operands()

		pattern := operands[0]
		if *ignoreCase {
			pattern = "(?i)" + pattern
		}
		regex, err := regexp.Compile(pattern)
		if err != nil {
			m.Errorf("Invalid pattern %s: %v", operands[0], err)
			return nil, machine.SigEvaluation
		}

		var out []string
		search := func(name string, content []string) {
			for i, line := range content {
				lineMatches := regex.MatchString(line)
				if lineMatches == *invert {
					continue
				}

				var prefix string
				if name != "" {
					prefix += name + ":"
				}
				if *showLineNumbers {
					prefix += fmt.Sprintf("%d:", i+1)
				}
				out = append(out, prefix+line)
			}
		}

		files := operands[1:]
		if len(files) == 0 {
			input := m.InputStream()
			m.ReplaceInputStream(nil)
			search("", input)
			return lines(out), machine.OK
		}

		showFileName := len(files) > 1
		for _, path := range files {
			content, sig := ReadContent(m, path)
			if sig != machine.OK {
				return nil, sig
			}
			name := ""
			if showFileName {
				name = path
			}
			search(name, strings.Split(content, "\n"))
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Grep

func init() {
	mustAddVerb("grep", &machine.Command{
		Use:           "grep [-inv] PATTERN [FILE]...",
		Short:         "Search files or piped input for text matching a pattern.",
		ConsumesInput: true,
		Run:           Grep,
	})
}
