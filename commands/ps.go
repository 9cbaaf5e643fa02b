package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Ps lists the machine's processes.
func Ps(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "ps",
		Short: "Report a snapshot of the running processes.",

		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		var buf bytes.Buffer
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "PID\tUSER\tCOMMAND\t")
		for i, name := range m.Processes() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t\n", i+1, m.CurrentUser(), name)
		}
		tw.Flush()
		return expr.Str(strings.TrimRight(buf.String(), "\n")), machine.OK
	})
}

var _ machine.VerbFunc = Ps

func init() {
	addVerb("ps", Ps)
}
