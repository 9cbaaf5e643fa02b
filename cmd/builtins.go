package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/josephlewis42/dooros/modules"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the verbs a fresh machine understands
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the verbs and installable modules of a machine.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := machine.New(vfs.NewDir(), machine.Options{})
		commands.Install(m)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range m.VerbNames() {
			fmt.Fprintf(tw, "%s\t%s\n", name, describe(m, name))
		}
		for _, name := range modules.Names() {
			fmt.Fprintf(tw, "%s\t(module, install with pkgman get %s)\n", name, name)
		}
		return tw.Flush()
	},
}

func describe(m *machine.Machine, name string) string {
	if c, ok := m.Describe(name); ok && c.Short != "" {
		return c.Short
	}
	return ""
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
