package machine

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
)

// outputState is the routing of the statement being run.
type outputState struct {
	value       expr.Value
	mode        OutputMode
	destination string
}

// OutputMode returns the routing of the statement being run, verbs can use
// it to decide whether to decorate their output. It's always ModeEcho
// between statements.
func (m *Machine) OutputMode() OutputMode {
	return m.out.mode
}

func (m *Machine) resetOutput() {
	m.out = outputState{}
}

// deliver routes the captured output. The output state is reset whatever
// the outcome.
func (m *Machine) deliver() Signal {
	defer m.resetOutput()

	out := m.out
	if out.value == nil {
		return OK
	}
	if s, ok := out.value.(expr.Str); ok && s == "" {
		return OK
	}

	switch out.mode {
	case ModePipe:
		if len(m.queue) == 0 {
			m.echo(out.value)
			return OK
		}
		m.pipe(out.value)
		return OK

	case ModeFileAppend, ModeFileOverwrite:
		err := m.fs.Write(out.destination, m.Cwd(), out.value.String(), out.mode == ModeFileAppend)
		if err != nil {
			m.Errorf("Destination %s is not a valid file: %v", out.destination, err)
			return SigInvalidPath
		}
		return OK

	default:
		m.echo(out.value)
		return OK
	}
}

// echo prints a value and records it as the last output.
func (m *Machine) echo(v expr.Value) {
	fmt.Fprintln(m.stdout, v.String())
	m.lastOutput = v
}

// pipe hands output to the next queued statement, either through the input
// stream or as trailing arguments placed before any redirection.
func (m *Machine) pipe(v expr.Value) {
	lines := strings.Split(v.String(), "\n")

	stages := strings.SplitN(m.queue[0], pipeSeparator, 2)
	first := stages[0]
	verb, _ := SplitVerb(first)

	if m.traits(verb).ConsumesInput {
		m.input = append(m.input, lines...)
		return
	}

	added := strings.Join(lines, " ")
	if idx := strings.Index(first, overwriteOperator); idx >= 0 {
		first = strings.TrimRight(first[:idx], " ") + " " + added + " " + first[idx:]
	} else {
		first = strings.TrimRight(first, " ") + " " + added
	}
	stages[0] = first
	m.queue[0] = strings.Join(stages, pipeSeparator)
}
