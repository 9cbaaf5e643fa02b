package commands

import (
	"errors"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Del deletes files.
func Del(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "del [OPTION...] FILE...",
		Short: "Delete files.",
	}

	force := cmd.Flags().BoolLong("force", 'f', "ignore missing files")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		for _, path := range cmd.Operands() {
			err := m.FS().Remove(path, m.Cwd())
			switch {
			case err == nil:
			case errors.Is(err, vfs.ErrPathNotFound) && *force:
			case errors.Is(err, vfs.ErrIsDirectory):
				m.Errorf("%s is a directory, use rmdir.", path)
				return nil, machine.SignalFor(err)
			default:
				m.Errorf("File %s not found.", path)
				return nil, machine.SignalFor(err)
			}
		}
		return nil, machine.OK
	})
}

var _ machine.VerbFunc = Del

func init() {
	addVerb("del", Del)
	addVerb("rm", Del)
}
