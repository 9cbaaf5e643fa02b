package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Which reports whether verbs are installed.
func Which(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "which VERB...",
		Short: "Locate a verb.",
		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		var out []string
		for _, name := range cmd.Operands() {
			if _, ok := m.LookupVerb(name); ok {
				out = append(out, name)
				continue
			}
			if _, ok := m.Module(name); ok {
				m.Errorf("%s is not installed, install it with: pkgman get %s", name, name)
			} else {
				m.Errorf("%s not found.", name)
			}
			return nil, machine.SigCommandNotFound
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Which

func init() {
	addVerb("which", Which)
}
