package modules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/network"
)

const (
	// HandlerVar holds the script the server runs for each message.
	HandlerVar = "server_handler"
	// SenderVar and MessageVar are set before the handler runs.
	SenderVar  = "sender"
	MessageVar = "message"

	messagePrefix = "MSGFROM "
)

// parseMessage splits a MSGFROM line into its sender and content.
func parseMessage(line string) (from int, content string, ok bool) {
	if !strings.HasPrefix(line, messagePrefix) {
		return 0, "", false
	}
	addr, content, ok := strings.Cut(strings.TrimPrefix(line, messagePrefix), ":")
	if !ok {
		return 0, "", false
	}
	from, err := strconv.Atoi(addr)
	if err != nil {
		return 0, "", false
	}
	return from, content, true
}

// Server answers messages from other machines. While it runs, every message
// that arrives makes it respond: each MSGFROM line is taken from the input
// stream and either handed to the handler script or printed.
func Server(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &commands.SimpleVerb{
		Use:   "server start [HANDLER] | server stop | server status | server respond",
		Short: "Answer messages from other machines.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		operands := cmd.Operands()

		switch operands[0] {
		case "start":
			if len(operands) > 1 {
				handler := operands[1]
				if _, err := m.FS().ReadFile(handler, m.Cwd()); err != nil {
					m.Errorf("Handler %s not found.", handler)
					return nil, machine.SignalFor(err)
				}
				m.SetVar(HandlerVar, expr.Str(handler))
			}
			m.StartProcess(network.ServerProcess)
			if net := m.Network(); net != nil {
				if addr, ok := net.Address(m); ok {
					return expr.Str(fmt.Sprintf("Server started on address %d.", addr)), machine.OK
				}
			}
			return expr.Str("Server started."), machine.OK

		case "stop":
			if !m.StopProcess(network.ServerProcess) {
				m.Errorf("Server is not running.")
				return nil, machine.SignalError
			}
			return expr.Str("Server stopped."), machine.OK

		case "status":
			if m.HasProcess(network.ServerProcess) {
				return expr.Str("running"), machine.OK
			}
			return expr.Str("stopped"), machine.OK

		case "respond":
			if !m.HasProcess(network.ServerProcess) {
				m.Errorf("Server is not running.")
				return nil, machine.SignalError
			}
			return respond(m)

		default:
			m.Errorf("Unknown operation %s, usage: %s", operands[0], cmd.Use)
			return nil, machine.SigArgumentLength
		}
	})
}

// respond consumes the messages waiting in the input stream, other input is
// left in place.
func respond(m *machine.Machine) (expr.Value, machine.Signal) {
	type message struct {
		from    int
		content string
	}

	var messages []message
	var rest []string
	for _, line := range m.InputStream() {
		if from, content, ok := parseMessage(line); ok {
			messages = append(messages, message{from, content})
		} else {
			rest = append(rest, line)
		}
	}
	m.ReplaceInputStream(rest)

	handler, hasHandler := m.Var(HandlerVar)

	var out []string
	for _, msg := range messages {
		if !hasHandler {
			out = append(out, fmt.Sprintf("Message from %d: %s", msg.from, msg.content))
			continue
		}

		m.SetVar(SenderVar, expr.Int(msg.from))
		m.SetVar(MessageVar, expr.Str(msg.content))
		if _, sig := m.RunScript(handler.String()); sig != machine.OK {
			return nil, sig
		}
	}

	if len(out) == 0 {
		return nil, machine.OK
	}
	return expr.Str(strings.Join(out, "\n")), machine.OK
}

var _ machine.VerbFunc = Server

func init() {
	mustAddModule("server", machine.VerbFunc(Server))
}
