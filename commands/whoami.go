package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Whoami prints the acting user.
func Whoami(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "whoami [OPTION]...",
		Short: "Print the current user.",

		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		return expr.Str(m.CurrentUser()), machine.OK
	})
}

var _ machine.VerbFunc = Whoami

func init() {
	addVerb("whoami", Whoami)
}
