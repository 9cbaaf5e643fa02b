package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Pwd implements the UNIX pwd command.
func Pwd(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		return expr.Str(m.Cwd()), machine.OK
	})
}

var _ machine.VerbFunc = Pwd

func init() {
	addVerb("pwd", Pwd)
}
