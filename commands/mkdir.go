package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Mkdir creates directories, existing names are an error unless -p is set.
func Mkdir(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "mkdir [OPTION...] DIRECTORY...",
		Short: "Make directories.",
	}

	makeParents := cmd.Flags().BoolLong("parents", 'p', "make parents if needed")
	verbose := cmd.Flags().BoolLong("verbose", 'v', "print line for every created directory")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		var out []string
		for _, dir := range cmd.Operands() {
			if _, name := vfs.SplitParent(dir); !machine.ValidName(name) {
				m.Errorf("Invalid character in directory name.")
				return nil, machine.SigInvalidName
			}

			var err error
			if *makeParents {
				_, err = m.FS().MkdirAll(dir, m.Cwd())
			} else {
				err = m.FS().Mkdir(dir, m.Cwd())
			}
			if err != nil {
				m.Errorf("Cannot create directory %s: %v", dir, err)
				return nil, machine.SignalFor(err)
			}

			if *verbose {
				out = append(out, "mkdir: created directory: "+dir)
			}
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Mkdir

func init() {
	addVerb("mkdir", Mkdir)
}
