package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"mvdan.cc/sh/v3/syntax"
)

// Vars prints variables. With -p they're written as POSIX shell
// assignments that can be pasted into a real shell.
func Vars(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "vars [-p] [NAME]...",
		Short: "Print variables and their values.",
	}

	posix := cmd.Flags().Bool('p', "print as POSIX shell assignments")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		names := cmd.Operands()
		if len(names) == 0 {
			names = m.VarNames()
		}

		var out []string
		for _, name := range names {
			value, ok := m.Var(name)
			if !ok {
				m.Errorf("Variable $%s not found.", name)
				return nil, machine.SigVariableNotFound
			}

			if !*posix {
				out = append(out, fmt.Sprintf("%s=%s", name, value.Literal()))
				continue
			}
			quoted, err := syntax.Quote(value.String(), syntax.LangPOSIX)
			if err != nil {
				m.Errorf("Variable $%s can't be quoted: %v", name, err)
				return nil, machine.SigInvalidName
			}
			out = append(out, fmt.Sprintf("export %s=%s", name, quoted))
		}
		return lines(out), machine.OK
	})
}

var _ machine.VerbFunc = Vars

func init() {
	addVerb("vars", Vars)
}
