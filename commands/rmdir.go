package commands

import (
	"errors"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Rmdir removes empty directories.
func Rmdir(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "rmdir [OPTION...] DIRECTORY...",
		Short: "Remove empty directories.",
	}

	verbose := cmd.Flags().BoolLong("verbose", 'v', "print line for every deleted directory")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		var out []string
		for _, dir := range cmd.Operands() {
			err := m.FS().RemoveDir(dir, m.Cwd())
			switch {
			case errors.Is(err, vfs.ErrNotEmpty):
				m.Errorf("Target directory is not empty.")
				return nil, machine.SigNotEmptyDirectory
			case err != nil:
				m.Errorf("Cannot remove directory %s: %v", dir, err)
				return nil, machine.SignalFor(err)
			case *verbose:
				out = append(out, "rmdir: removed directory: "+dir)
			}
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Rmdir

func init() {
	addVerb("rmdir", Rmdir)
}
