package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/gliderlabs/ssh"
	"github.com/josephlewis42/dooros/core/config"
	"github.com/josephlewis42/dooros/core/logger"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/network"
	"github.com/josephlewis42/dooros/core/ttylog"
)

const defaultWidth = 80

// Server runs one machine per SSH session, all attached to a shared
// network.
type Server struct {
	configuration *config.Configuration
	events        *logger.Logger
	router        *network.Router
	appLog        *log.Logger
	sshServer     *ssh.Server
}

// NewServer creates a server from the configuration. Events are written to
// eventLog as JSON lines.
func NewServer(configuration *config.Configuration, eventLog io.Writer, appLog *log.Logger) (*Server, error) {
	hostKey, err := configuration.PrivateKeyPem()
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}

	server := &Server{
		configuration: configuration,
		events:        logger.NewJsonLinesLogRecorder(eventLog),
		router:        network.New(appLog),
		appLog:        appLog,
	}

	server.sshServer = &ssh.Server{
		Addr: fmt.Sprintf(":%d", configuration.SSHPort),
		Handler: func(s ssh.Session) {
			if err := server.HandleConnection(s); err != nil {
				appLog.Printf("session from %s failed: %v", s.RemoteAddr(), err)
			}
		},
	}
	if err := server.sshServer.SetOption(ssh.HostKeyPEM(hostKey)); err != nil {
		return nil, err
	}

	return server, nil
}

// Router returns the network the sessions' machines are attached to.
func (s *Server) Router() *network.Router {
	return s.router
}

// HandleConnection runs a console over the SSH session.
func (s *Server) HandleConnection(sess ssh.Session) error {
	events := s.events.NewSession()

	ptyInfo, winch, isPTY := sess.Pty()
	var width atomic.Int64
	width.Store(int64(ptyInfo.Window.Width))
	if width.Load() <= 0 {
		width.Store(defaultWidth)
	}
	go func() {
		for window := range winch {
			width.Store(int64(window.Width))
		}
	}()

	// Start logging the terminal interactions.
	logName := fmt.Sprintf("%s.%s", events.ID(), ttylog.AsciicastFileExt)
	logFd, err := s.configuration.CreateSessionLog(logName)
	if err != nil {
		return err
	}
	defer logFd.Close()
	events.OpenTTYLog(logName)
	header := ttylog.NewAsciicastHeader("doorOS session "+events.ID(), int(width.Load()), ptyInfo.Window.Height)
	recorder := ttylog.NewRecorder(ttylog.NewAsciicastLogSink(logFd, header))

	var out io.Writer = sess
	if isPTY {
		out = NewCRLFWriter(out)
	}
	out = Throttle(out, s.configuration.ConsoleBytesPerSecond)
	stdout := recorder.Writer(ttylog.FDStdout, out)
	stderr := recorder.Writer(ttylog.FDStderr, out)

	if banner := s.configuration.SSHBanner; banner != "" {
		fmt.Fprintln(stdout, banner)
	}

	m, err := NewMachine(s.configuration, machine.Options{
		Stdout:   stdout,
		Stderr:   stderr,
		Observer: events,
		Color:    isPTY,
	})
	if err != nil {
		sess.Exit(1)
		return err
	}
	addr := s.router.Attach(m)
	defer s.router.Detach(m)
	events.Boot(m)
	s.appLog.Printf("session %s from %s attached at address %d", events.ID(), sess.RemoteAddr(), addr)

	in, closer, err := NewReadline(recorder.Reader(sess), stdout, stderr,
		func() bool { return isPTY },
		func() int { return int(width.Load()) },
	)
	if err != nil {
		sess.Exit(1)
		return err
	}
	defer closer.Close()

	console := &Console{
		Machine:    m,
		In:         in,
		Out:        stdout,
		Submit:     s.router.Submit,
		Events:     events,
		BootDelay:  s.configuration.BootDelay(),
		Motd:       s.configuration.Motd,
		RemoteAddr: sess.RemoteAddr().String(),
	}
	runErr := console.Run()

	reason := "exit"
	if runErr != nil {
		reason = runErr.Error()
	}
	events.End(reason)
	sess.Exit(0)
	return runErr
}

func (s *Server) ListenAndServe() error {
	log.Printf("- Starting SSH server on %s\n", s.sshServer.Addr)
	return s.sshServer.ListenAndServe()
}

// Shutdown stops accepting sessions and waits for deliveries in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.sshServer.Shutdown(ctx)
	s.router.Wait()
	return err
}
