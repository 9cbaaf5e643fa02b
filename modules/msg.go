package modules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/network"
)

// parseAddress reads a network address operand.
func parseAddress(m *machine.Machine, operand string) (int, machine.Signal) {
	addr, err := strconv.Atoi(operand)
	if err != nil || addr < 0 {
		m.Errorf("Invalid address %s.", operand)
		return 0, machine.SigInvalidName
	}
	return addr, machine.OK
}

// networkSignal reports a relay error.
func networkSignal(m *machine.Machine, addr int, err error) machine.Signal {
	switch {
	case errors.Is(err, network.ErrUnknownAddress):
		m.Errorf("Address %d not found.", addr)
		return machine.SigPathNotFound
	case errors.Is(err, network.ErrLinkRefused):
		m.Errorf("Address %d is not accepting links.", addr)
		return machine.SigModuleNotFound
	default:
		m.Errorf("Network error: %v", err)
		return machine.SignalError
	}
}

// attached returns the machine's relay, or reports that there isn't one.
func attached(m *machine.Machine) (machine.Network, machine.Signal) {
	net := m.Network()
	if net == nil {
		m.Errorf("Not connected to a network.")
		return nil, machine.SignalError
	}
	return net, machine.OK
}

// Msg sends a line of text to another machine.
func Msg(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &commands.SimpleVerb{
		Use:   "msg ADDRESS TEXT...",
		Short: "Send a message to another machine.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 2); sig != machine.OK {
			return nil, sig
		}
		operands := cmd.Operands()

		addr, sig := parseAddress(m, operands[0])
		if sig != machine.OK {
			return nil, sig
		}
		net, sig := attached(m)
		if sig != machine.OK {
			return nil, sig
		}

		if err := net.Send(m, addr, strings.Join(operands[1:], " ")); err != nil {
			return nil, networkSignal(m, addr, err)
		}
		return expr.Str(fmt.Sprintf("Message sent to %d.", addr)), machine.OK
	})
}

var _ machine.VerbFunc = Msg

func init() {
	mustAddModule("msg", machine.VerbFunc(Msg))
}
