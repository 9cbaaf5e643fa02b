package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// User manages accounts: add creates a sudo user, del removes one and mod
// grants (+) or revokes (-) sudo.
func User(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "user add|del|mod USERNAME [PASSWORD|+|-]",
		Short: "Manage users.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := m.Require(machine.PermRoot); sig != machine.OK {
			return nil, sig
		}

		operands := cmd.Operands()
		if len(operands) < 2 {
			m.Errorf("Insufficient arguments")
			return nil, machine.SigArgumentLength
		}
		op, name := operands[0], operands[1]
		if !machine.ValidName(name) {
			m.Errorf("Username invalid")
			return nil, machine.SigInvalidName
		}

		switch op {
		case "add":
			var password string
			if len(operands) > 2 {
				password = operands[2]
			} else {
				var err error
				password, err = m.ReadInput(fmt.Sprintf("Enter password for user %s: ", name))
				if err != nil {
					m.Errorf("Couldn't read password: %v", err)
					return nil, machine.SignalError
				}
			}
			m.SetUser(name, &machine.User{Password: password, Permission: machine.PermSudo})
			return expr.Str(fmt.Sprintf("Created user %s with password %s.", name, password)), machine.OK

		case "del":
			if name == machine.RootUser {
				m.Errorf("The root user can't be deleted.")
				return nil, machine.SigPermission
			}
			if !m.DeleteUser(name) {
				m.Errorf("User %s not found.", name)
				return nil, machine.SigUserNotFound
			}
			return expr.Str(fmt.Sprintf("Deleted user %s.", name)), machine.OK

		case "mod":
			target, ok := m.LookupUser(name)
			if !ok {
				m.Errorf("User %s not found.", name)
				return nil, machine.SigUserNotFound
			}
			if len(operands) < 3 {
				m.Errorf("Please specify the operation you wish to perform.")
				return nil, machine.SigArgumentLength
			}
			switch operands[2] {
			case "+":
				target.Permission = machine.PermSudo
			case "-":
				target.Permission = machine.PermUser
			default:
				m.Errorf("Unknown operation %s, expected + or -.", operands[2])
				return nil, machine.SigArgumentLength
			}
			return expr.Str(fmt.Sprintf("Modified permissions for user %s.", name)), machine.OK

		default:
			m.Errorf("Unknown user command %s.", op)
			return nil, machine.SigArgumentLength
		}
	})
}

var _ machine.VerbFunc = User

func init() {
	addVerb("user", User)
}
