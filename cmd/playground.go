package cmd

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/josephlewis42/dooros/core"
	"github.com/josephlewis42/dooros/core/config"
	"github.com/josephlewis42/dooros/core/logger"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/network"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runConsole boots the configured machine on the local terminal.
func runConsole(cfg *config.Configuration, stdin io.Reader, stdout, stderr io.Writer, appLog *log.Logger) error {
	fd := int(os.Stdout.Fd())
	isTerminal := func() bool { return term.IsTerminal(fd) }
	width := func() int {
		w, _, err := term.GetSize(fd)
		if err != nil || w <= 0 {
			return 80
		}
		return w
	}

	eventLog, err := cfg.OpenAppLog()
	if err != nil {
		return err
	}
	defer eventLog.Close()
	events := logger.NewJsonLinesLogRecorder(eventLog).NewSession()

	m, err := core.NewMachine(cfg, machine.Options{
		Stdout:   stdout,
		Stderr:   stderr,
		Observer: events,
		Color:    isTerminal(),
	})
	if err != nil {
		return err
	}

	router := network.New(appLog)
	router.Attach(m)
	defer router.Wait()
	defer router.Detach(m)
	events.Boot(m)

	in, closer, err := core.NewReadline(stdin, stdout, stderr, isTerminal, width)
	if err != nil {
		return err
	}
	defer closer.Close()

	console := &core.Console{
		Machine:    m,
		In:         in,
		Out:        stdout,
		Submit:     router.Submit,
		Events:     events,
		BootDelay:  cfg.BootDelay(),
		Motd:       cfg.Motd,
		RemoteAddr: "local",
	}
	err = console.Run()

	reason := "exit"
	if err != nil {
		reason = err.Error()
	}
	events.End(reason)
	return err
}

// consoleCmd runs the configured machine on the local terminal
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Boot the configured machine on this terminal.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		appLog := log.New(cmd.ErrOrStderr(), "[console] ", 0)
		return runConsole(configuration, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), appLog)
	},
}

// playgroundCmd runs a throwaway machine with the default configuration
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Boot a throwaway machine with the default configuration.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir, err := os.MkdirTemp("", "playground")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		cfg, err := config.Initialize(dir, playgroundLogger)
		if err != nil {
			return err
		}

		// Mark the host name so the playground isn't mistaken for a configured machine.
		cfg.MachineName = "playground"

		playgroundLogger.Printf("Logging to: file://%s\n", dir)
		playgroundLogger.Printf("See logs with: tail -f %s\n", filepath.Join(dir, config.AppLogName))
		playgroundLogger.Println(strings.Repeat("=", 80))

		return runConsole(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), playgroundLogger)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(playgroundCmd)
}
