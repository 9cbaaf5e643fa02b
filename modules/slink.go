package modules

import (
	"fmt"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// SlinkProcess runs while the machine accepts links.
const SlinkProcess = "slink"

// Slink links input streams between machines. A machine that listens
// accepts links, linking to it replaces its input stream with the lines
// waiting in the sender's input stream.
func Slink(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &commands.SimpleVerb{
		Use:   "slink listen | slink close | slink ADDRESS",
		Short: "Link input streams between machines.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		net, sig := attached(m)
		if sig != machine.OK {
			return nil, sig
		}

		switch op := cmd.Operands()[0]; op {
		case "listen":
			if err := net.Listen(m, true); err != nil {
				m.Errorf("Network error: %v", err)
				return nil, machine.SignalError
			}
			m.StartProcess(SlinkProcess)
			addr, _ := net.Address(m)
			return expr.Str(fmt.Sprintf("Accepting links on address %d.", addr)), machine.OK

		case "close":
			if err := net.Listen(m, false); err != nil {
				m.Errorf("Network error: %v", err)
				return nil, machine.SignalError
			}
			m.StopProcess(SlinkProcess)
			return expr.Str("Links closed."), machine.OK

		default:
			addr, sig := parseAddress(m, op)
			if sig != machine.OK {
				return nil, sig
			}

			lines := m.InputStream()
			if err := net.Link(m, addr, lines); err != nil {
				return nil, networkSignal(m, addr, err)
			}
			m.ReplaceInputStream(nil)
			return expr.Str(fmt.Sprintf("Linked %d lines to %d.", len(lines), addr)), machine.OK
		}
	})
}

var _ machine.VerbFunc = Slink

func init() {
	mustAddModule("slink", &machine.Command{
		Use:           "slink listen | slink close | slink ADDRESS",
		Short:         "Link input streams between machines.",
		ConsumesInput: true,
		Run:           Slink,
	})
}
