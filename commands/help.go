package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Help lists the installed verbs or describes one of them.
func Help(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "help [VERB]",
		Short: "List the installed verbs or show help for one.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		operands := cmd.Operands()
		if len(operands) == 0 {
			return expr.Str("Installed verbs: " + strings.Join(m.VerbNames(), " ")), machine.OK
		}

		name := operands[0]
		info, ok := m.Describe(name)
		if !ok {
			m.Errorf("Command %s not found.", name)
			return nil, machine.SigCommandNotFound
		}
		if info.Use != "" {
			return expr.Str(fmt.Sprintf("usage: %s\n%s", info.Use, info.Short)), machine.OK
		}
		return m.Dispatch(name, "--help")
	})
}

var _ machine.VerbFunc = Help

func init() {
	addVerb("help", Help)
}
