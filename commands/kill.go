package commands

import (
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Kill stops a process. Killing the shell ends the session.
func Kill(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "kill PROCESS...",
		Short: "Stop running processes.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		for _, name := range cmd.Operands() {
			if name == machine.ShellProcess {
				return nil, machine.SignalExit
			}
			if !m.StopProcess(name) {
				m.Errorf("Process %s not found.", name)
				return nil, machine.SignalError
			}
		}
		return nil, machine.OK
	})
}

var _ machine.VerbFunc = Kill

func init() {
	addVerb("kill", Kill)
	addVerb("killall", Kill)
}
