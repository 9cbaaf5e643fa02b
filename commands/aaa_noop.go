package commands

import (
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Verbs with fixed output.
type NoOpVerb struct {
	Name   string
	Use    string
	Short  string
	Stdout string
}

// Convert the no-op verb description to a functioning verb.
func (c *NoOpVerb) ToVerb() machine.VerbFunc {
	return func(m *machine.Machine, args string) (expr.Value, machine.Signal) {
		cmd := &SimpleVerb{
			Use:   c.Use,
			Short: c.Short,
			// Never bail, even if args are bad.
			NeverBail: true,
		}

		return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
			if c.Stdout == "" {
				return nil, machine.OK
			}
			return expr.Str(c.Stdout), machine.OK
		})
	}
}

// dedent removes the common leading indentation and surrounding blank lines
// from a block of text.
func dedent(text string) string {
	lines := strings.Split(strings.TrimRight(strings.TrimLeft(text, "\n"), " \t\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}

var noOpVerbs = []NoOpVerb{
	{
		Name:  "true",
		Use:   "true",
		Short: "Do nothing, successfully.",
	},
	{
		Name:  "sysinfo",
		Use:   "sysinfo",
		Short: "Display information about the door hardware.",
		Stdout: dedent(`
            Controller:              DC-8 door controller
              Word size:             16 bits
              Byte Order:            Little Endian
            Memory:                  64K
            Storage:                 1 volume
            Network:                 doorNET relay adapter
        `),
	},
}

func init() {
	for i := range noOpVerbs {
		cmd := noOpVerbs[i]
		addVerb(cmd.Name, cmd.ToVerb())
	}
}
