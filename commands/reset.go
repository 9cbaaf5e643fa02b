package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Reset resets a color console.
func Reset(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	if m.ColorEnabled() {
		// Assumes VT100 compatibility.
		fmt.Fprint(m.Stdout(), "\033c")
	}
	return nil, machine.OK
}

var _ machine.VerbFunc = Reset

func init() {
	addVerb("reset", Reset)
}
