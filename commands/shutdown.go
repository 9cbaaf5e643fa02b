package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Shutdown saves the machine's state and ends the session.
func Shutdown(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "shutdown",
		Short: "Save the machine and power off.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if err := m.Shutdown(); err != nil {
			m.Errorf("Couldn't save the machine: %v", err)
			return nil, machine.SignalError
		}
		fmt.Fprintf(m.Stdout(), "%s is shutting down.\n", m.Name())
		return nil, machine.SignalExit
	})
}

var _ machine.VerbFunc = Shutdown

func init() {
	addVerb("shutdown", Shutdown)
}
