package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Ifconfig shows the machine's address on the relay.
func Ifconfig(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "ifconfig",
		Short: "Show the network interface.",

		// Never bail, even if args are bad.
		NeverBail: true,
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if net := m.Network(); net != nil {
			if addr, ok := net.Address(m); ok {
				return expr.Str(fmt.Sprintf("net0: flags=<UP,RUNNING> address %d", addr)), machine.OK
			}
		}
		return expr.Str("net0: flags=<DOWN>"), machine.OK
	})
}

var _ machine.VerbFunc = Ifconfig

func init() {
	addVerb("ifconfig", Ifconfig)
}
