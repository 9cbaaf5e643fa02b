package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Passwd changes a user's password, changing another user's needs root.
func Passwd(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "passwd [LOGIN]",
		Short: "Change user password.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		login := m.CurrentUser()
		if operands := cmd.Operands(); len(operands) > 0 && operands[0] != login {
			if sig := m.Require(machine.PermRoot); sig != machine.OK {
				return nil, sig
			}
			login = operands[0]
		}

		account, ok := m.LookupUser(login)
		if !ok {
			m.Errorf("User %s not found.", login)
			return nil, machine.SigUserNotFound
		}

		newPass1, err1 := m.ReadInput("Enter new password: ")
		if err1 != nil {
			return expr.Str("passwd: password unchanged"), machine.OK
		}
		newPass2, err2 := m.ReadInput("Retype new password: ")
		if err2 != nil || newPass1 != newPass2 {
			return expr.Str("Sorry, passwords don't match.\npasswd: password unchanged"), machine.OK
		}

		account.Password = newPass1
		return expr.Str("passwd: password updated successfully"), machine.OK
	})
}

var _ machine.VerbFunc = Passwd

func init() {
	mustAddVerb("passwd", &machine.Command{
		Use:           "passwd [LOGIN]",
		Short:         "Change user password.",
		ConsumesInput: true,
		Run:           Passwd,
	})
}
