package commands

import (
	"fmt"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Clear clears a color console.
func Clear(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	if m.ColorEnabled() {
		// Assumes VT100 compatibility.
		fmt.Fprint(m.Stdout(), "\033[H\033[2J")
	}
	return nil, machine.OK
}

var _ machine.VerbFunc = Clear

func init() {
	addVerb("clear", Clear)
}
