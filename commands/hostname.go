package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Hostname prints the machine's name.
func Hostname(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "hostname",
		Short: "Show the system's host name.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		return expr.Str(m.Name()), machine.OK
	})
}

var _ machine.VerbFunc = Hostname

func init() {
	addVerb("hostname", Hostname)
}
