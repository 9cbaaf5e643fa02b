package cmd

import (
	"os"
	"path/filepath"

	"github.com/josephlewis42/dooros/core"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var importMaxSize int64

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Move machine filesystems to and from real directories.",
}

// exportCommand writes the machine's current filesystem to a directory
var exportCommand = &cobra.Command{
	Use:   "export DIR",
	Short: "Write the machine's filesystem, including saved changes, into DIR.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := core.NewMachine(configuration, machine.Options{})
		if err != nil {
			return err
		}

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		return vfs.Export(m.FS().Root(), afero.NewBasePathFs(afero.NewOsFs(), dir), "/")
	},
}

// importCommand renders a directory as a filesystem document
var importCommand = &cobra.Command{
	Use:   "import DIR [OUTPUT_YAML]",
	Short: "Convert DIR to a filesystem document, printed if no output is given.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		base, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		dir, err := vfs.Import(afero.NewBasePathFs(afero.NewOsFs(), base), "/", importMaxSize)
		if err != nil {
			return err
		}

		doc, err := vfs.MarshalDocument(dir)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			_, err := cmd.OutOrStdout().Write(doc)
			return err
		}
		return os.WriteFile(args[1], doc, 0644)
	},
}

func init() {
	rootCmd.AddCommand(fsCmd)
	fsCmd.AddCommand(exportCommand)
	fsCmd.AddCommand(importCommand)

	importCommand.Flags().Int64Var(&importMaxSize, "max-size", 64*1024, "Largest file, in bytes, whose contents are kept. 0 keeps all.")
}
