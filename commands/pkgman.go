package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Pkgman installs and removes the optional modules a machine offers.
func Pkgman(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "pkgman get|remove MODULE... | pkgman list",
		Short: "Manage system modules.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		operands := cmd.Operands()
		op, modules := operands[0], operands[1:]

		var out []string
		switch op {
		case "list":
			for _, name := range m.ModuleNames() {
				state := "available"
				if installed(m, name) {
					state = "installed"
				}
				out = append(out, fmt.Sprintf("%s (%s)", name, state))
			}

		case "get":
			for _, name := range modules {
				module, ok := m.Module(name)
				if !ok {
					m.Errorf("Module %s not found.", name)
					return nil, machine.SigModuleNotFound
				}
				m.InstallVerb(name, module)
				out = append(out, fmt.Sprintf("Installed module %s.", name))
			}

		case "remove":
			for _, name := range modules {
				if _, ok := m.Module(name); !ok || !installed(m, name) {
					m.Errorf("Module %s not found.", name)
					return nil, machine.SigModuleNotFound
				}
				m.RemoveVerb(name)
				out = append(out, fmt.Sprintf("Removed module %s.", name))
			}

		default:
			m.Errorf("Unknown operation %s, usage: %s", op, cmd.Use)
			return nil, machine.SigArgumentLength
		}

		return expr.Str(strings.Join(out, "\n")), machine.OK
	})
}

// installed reports whether the module's verb is currently installed.
func installed(m *machine.Machine, name string) bool {
	_, ok := m.LookupVerb(name)
	return ok
}

var _ machine.VerbFunc = Pkgman

func init() {
	mustAddVerb("pkgman", &machine.Command{
		Use:      "pkgman get|remove MODULE... | pkgman list",
		Short:    "Manage system modules.",
		Requires: machine.PermSudo,
		Run:      Pkgman,
	})
}
