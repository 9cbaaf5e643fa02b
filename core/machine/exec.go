package machine

import (
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
)

// SubmitLine runs a raw line and every statement it queues. It returns the
// first error or exit signal raised, or OK.
func (m *Machine) SubmitLine(line string) Signal {
	result := m.Exec(line)
	for result != SignalExit {
		next, ok := m.popQueue()
		if !ok {
			break
		}
		if sig := m.Exec(next); sig != OK && (result == OK || sig == SignalExit) {
			result = sig
		}
	}
	return result
}

// Exec runs one statement. Errors abort the chain: the queue and input
// stream are cleared and the termination message is delivered in place of
// the output.
func (m *Machine) Exec(line string) Signal {
	sig := m.runStatement(line)
	switch {
	case sig.IsError():
		m.errorBreak(sig)
	case sig == SignalExit:
		m.queue = nil
		m.input = nil
	}
	return sig
}

func (m *Machine) errorBreak(sig Signal) {
	m.queue = nil
	m.input = nil
	m.out = outputState{value: expr.Str(sig.TerminatedMessage())}
	m.deliver()
}

// runStatement expands, parses, dispatches and routes one statement.
func (m *Machine) runStatement(line string) Signal {
	defer m.resetOutput()
	line = strings.ReplaceAll(line, escapedDollar, "")

	statement, rest := SplitStatements(line)
	m.queue = append(m.queue, rest...)

	if strings.TrimSpace(statement) == "" {
		return OK
	}

	verb, _ := SplitVerb(statement)
	traits := m.traits(verb)
	if !traits.RawArgs {
		expanded, sig := m.Expand(statement)
		if sig != OK {
			return sig
		}
		statement = expanded
		verb, _ = SplitVerb(statement)
		traits = m.traits(verb)
	}

	route := Redirection{Command: statement, Mode: ModeEcho}
	if !traits.RawArgs && !traits.NoSplit {
		route = ParseRedirection(statement)
		if route.Mode == ModePipe && route.Continuation != "" {
			m.queue = append([]string{route.Continuation}, m.queue...)
		}
	}

	verb, args := SplitVerb(route.Command)
	m.out = outputState{mode: route.Mode, destination: route.Destination}
	value, sig := m.Dispatch(verb, args)
	if sig != OK {
		return sig
	}

	// Set after dispatch, scripts run by the verb route their own lines.
	m.out = outputState{value: value, mode: route.Mode, destination: route.Destination}
	return m.deliver()
}
