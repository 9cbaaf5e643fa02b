package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/josephlewis42/dooros/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var shutdownTimeout time.Duration

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve machine consoles to SSH clients.",
	Long: `Serve machine consoles to SSH clients.

Every session boots its own machine from the configuration. The machines share
a network so they can reach each other with msg, slink and server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Stdin.Close()
		cmd.SilenceUsage = true
		appLog := log.New(cmd.ErrOrStderr(), "[serve] ", log.LstdFlags)
		appLog.Println("Initializing server...")

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		appLog.Println("Starting event log...")
		eventLog, err := configuration.OpenAppLog()
		if err != nil {
			return err
		}
		defer eventLog.Close()

		server, err := core.NewServer(configuration, eventLog, appLog)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := server.ListenAndServe()
			if errors.Is(err, ssh.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			appLog.Println("Terminating...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		appLog.Print("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Time to wait for sessions to end on shutdown.")
}
