package commands

import (
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Uname prints system information.
func Uname(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "uname [OPTIONS...]",
		Short: "Display system information.",
	}

	opts := cmd.Flags()
	showAll := opts.BoolLong("all", 'a', "print all information")
	showKernelName := opts.BoolLong("kernel-name", 's', "print the kernel name")
	showNodename := opts.BoolLong("nodename", 'n', "print the network node name")
	showRelease := opts.BoolLong("kernel-release", 'r', "print the kernel release")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		var out []string
		for _, entry := range []struct {
			flag     *bool
			property string
		}{
			{showKernelName, "doorOS"},
			{showNodename, m.Name()},
			{showRelease, m.OSVersion()},
		} {
			if *entry.flag || *showAll {
				out = append(out, entry.property)
			}
		}

		if len(out) == 0 {
			out = append(out, "doorOS")
		}
		return expr.Str(strings.Join(out, " ")), machine.OK
	})
}

var _ machine.VerbFunc = Uname

func init() {
	addVerb("uname", Uname)
}
