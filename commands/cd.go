package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Cd changes the working directory, with no operand it goes to the root.
func Cd(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "cd [DIRECTORY]",
		Short: "Change the current working directory.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		target := vfs.Separator
		if operands := cmd.Operands(); len(operands) > 0 {
			target = operands[0]
		}

		if err := m.Chdir(target); err != nil {
			m.Errorf("Directory %s does not exist.", target)
			return nil, machine.SignalFor(err)
		}
		return nil, machine.OK
	})
}

var _ machine.VerbFunc = Cd

func init() {
	addVerb("cd", Cd)
}
