package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Id prints a user's name and permission level.
func Id(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "id [USER]",
		Short: "Print user and permission information.",

		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		name := m.CurrentUser()
		if operands := cmd.Operands(); len(operands) > 0 {
			name = operands[0]
		}

		permission := machine.PermRoot
		if name != machine.RootUser {
			u, ok := m.LookupUser(name)
			if !ok {
				m.Errorf("User %s not found.", name)
				return nil, machine.SigUserNotFound
			}
			permission = u.Permission
		}
		return expr.Str(fmt.Sprintf("user=%s permissions=%s", name, permission)), machine.OK
	})
}

var _ machine.VerbFunc = Id

func init() {
	addVerb("id", Id)
}
