package machine

import (
	"github.com/josephlewis42/dooros/core/expr"
)

// Verb is a named command the dispatcher can run. args is the text of the
// statement after the verb with surrounding whitespace removed.
type Verb interface {
	Main(m *Machine, args string) (expr.Value, Signal)
}

// VerbFunc adapts a function to a Verb.
type VerbFunc func(m *Machine, args string) (expr.Value, Signal)

func (f VerbFunc) Main(m *Machine, args string) (expr.Value, Signal) {
	return f(m, args)
}

var _ Verb = (VerbFunc)(nil)

// Command is a Verb with the metadata the engine and help need.
type Command struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description.
	Short string

	// NoSplit passes pipe and redirection operators through to the verb.
	NoSplit bool
	// RawArgs skips substitution and splitting, the verb expands its own
	// arguments.
	RawArgs bool
	// ConsumesInput makes piped output feed the input stream instead of
	// being appended to the arguments.
	ConsumesInput bool
	// Requires is the minimum permission needed to run the verb.
	Requires Permission

	Run VerbFunc
}

var _ Verb = (*Command)(nil)

func (c *Command) Main(m *Machine, args string) (expr.Value, Signal) {
	return c.Run(m, args)
}

// commandOf returns the metadata for v, plain verbs get the zero value.
func commandOf(v Verb) *Command {
	if c, ok := v.(*Command); ok {
		return c
	}
	return &Command{Run: v.Main}
}

// traits returns the metadata of the named verb, unknown verbs get the zero
// value.
func (m *Machine) traits(verb string) *Command {
	if v, ok := m.verbs[verb]; ok {
		return commandOf(v)
	}
	return &Command{}
}
