package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/josephlewis42/dooros/core/config"
	"github.com/josephlewis42/dooros/core/ttylog"
	"github.com/spf13/cobra"
)

var idleTimeLimit time.Duration

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the recorded console sessions.",
}

// listCommand lists the recorded sessions
var listCommand = &cobra.Command{
	Use:   "list",
	Short: "List the recorded sessions.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		names, err := config.SessionLogs()
		if err != nil {
			return err
		}
		for _, name := range names {
			header, err := sessionHeader(config, name)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t\t(%v)\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, header.Time().UTC().Format(time.RFC3339), header.Title)
		}
		return nil
	},
}

// playCommand replays a session in real time
var playCommand = &cobra.Command{
	Use:   "play SESSION",
	Short: "Replay a recorded session in the terminal.",
	Long:  `Plays a recorded session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return replaySession(args[0], sink)
	},
}

// catCommand prints a session without pauses
var catCommand = &cobra.Command{
	Use:   "cat SESSION",
	Short: "Print full output of a recorded session to the terminal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		return replaySession(args[0], ttylog.NewClientOutput(cmd.OutOrStdout()))
	},
}

func sessionHeader(config *config.Configuration, name string) (*ttylog.AsciicastHeader, error) {
	fd, err := config.OpenSessionLog(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return ttylog.NewAsciicastLogSource(fd).Header()
}

func replaySession(name string, sink ttylog.LogSink) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.OpenSessionLog(name)
	if err != nil {
		return err
	}
	defer fd.Close()

	return replay(fd, sink)
}

func replay(r io.Reader, sink ttylog.LogSink) error {
	return ttylog.Replay(ttylog.NewAsciicastLogSource(r), sink)
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(listCommand)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(catCommand)

	// cat doesn't allow idle time
	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}
