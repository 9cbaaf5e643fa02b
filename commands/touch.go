package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Touch creates empty files, existing files are left alone.
func Touch(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "touch FILE...",
		Short: "Create empty files.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		for _, path := range cmd.Operands() {
			if _, name := vfs.SplitParent(path); !machine.ValidName(name) {
				m.Errorf("Invalid character in file name.")
				return nil, machine.SigInvalidName
			}
			if err := m.FS().Touch(path, m.Cwd()); err != nil {
				m.Errorf("Cannot touch %s: %v", path, err)
				return nil, machine.SignalFor(err)
			}
		}
		return nil, machine.OK
	})
}

var _ machine.VerbFunc = Touch

func init() {
	addVerb("touch", Touch)
}
