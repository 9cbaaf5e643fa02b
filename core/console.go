package core

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/dooros/core/logger"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

const profileName = ".profile"

var (
	bannerColor = color.New(color.FgGreen)
	promptColor = color.New(color.FgGreen, color.Bold)
)

// LineReader reads lines typed at the console.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	// ReadPassword reads a line without echoing it.
	ReadPassword(prompt string) (string, error)
}

type readlineReader struct {
	rl *readline.Instance
}

// NewReadline creates a LineReader with line editing and history.
func NewReadline(stdin io.Reader, stdout, stderr io.Writer, isTerminal func() bool, width func() int) (LineReader, io.Closer, error) {
	cfg := &readline.Config{
		Stdin:          readline.NewCancelableStdin(stdin),
		Stdout:         stdout,
		Stderr:         stderr,
		FuncGetWidth:   width,
		FuncIsTerminal: isTerminal,
	}

	if err := cfg.Init(); err != nil {
		return nil, nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, nil, err
	}
	return &readlineReader{rl: rl}, rl, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	return r.rl.Readline()
}

func (r *readlineReader) ReadPassword(prompt string) (string, error) {
	pass, err := r.rl.ReadPassword(prompt)
	return string(pass), err
}

// Console is the interactive front end of a machine: it boots it, logs a
// user in and runs the lines they type.
type Console struct {
	Machine *machine.Machine
	In      LineReader
	Out     io.Writer

	// Submit runs a line on the machine, nil uses Machine.SubmitLine.
	Submit func(m *machine.Machine, line string) machine.Signal
	// Events records logins, nil disables recording.
	Events *logger.SessionLogger

	BootDelay  time.Duration
	Motd       string
	RemoteAddr string

	sleep func(time.Duration)
}

// Run drives the console until the user shuts the machine down or the
// input closes.
func (c *Console) Run() error {
	c.Machine.SetPrompter(machine.PrompterFunc(c.In.ReadLine))

	c.boot()
	if len(c.Machine.Users()) == 1 {
		if err := c.createUser(); err != nil {
			return ignoreEOF(err)
		}
	}
	if err := c.login(); err != nil {
		return ignoreEOF(err)
	}
	c.startSession()
	return ignoreEOF(c.loop())
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Console) submit(line string) machine.Signal {
	if c.Submit != nil {
		return c.Submit(c.Machine, line)
	}
	return c.Machine.SubmitLine(line)
}

func (c *Console) boot() {
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for _, line := range []string{
		"Initialising BIOS...",
		fmt.Sprintf("Booting doorOS v.%s...", c.Machine.OSVersion()),
	} {
		fmt.Fprintln(c.Out, c.Machine.Colorize(bannerColor, line))
		sleep(c.BootDelay)
	}
}

// createUser sets up the first account of a machine that only has root.
func (c *Console) createUser() error {
	fmt.Fprintln(c.Out, "NEW USER LOGIN")
	for {
		name, err := c.In.ReadLine("Create username: ")
		if err != nil {
			return err
		}
		password, err := c.In.ReadPassword("Create password: ")
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if !machine.ValidName(name) || name == machine.RootUser {
			c.Machine.Errorf("Invalid username %q.", name)
			continue
		}
		c.Machine.SetUser(name, &machine.User{Password: password, Permission: machine.PermSudo})
		return nil
	}
}

func (c *Console) login() error {
	for {
		username, err := c.In.ReadLine("Username: ")
		if err != nil {
			return err
		}
		password, err := c.In.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		username = strings.TrimSpace(username)

		err = c.Machine.Login(username, password)
		switch {
		case err == nil:
			c.recordLogin(username, logger.LoginSuccess)
			return nil
		case errors.Is(err, machine.ErrRootLogin):
			c.recordLogin(username, logger.LoginRootRefused)
			c.Machine.Errorf("Cannot login as root. Please try again.")
		default:
			c.recordLogin(username, logger.LoginFailure)
			fmt.Fprintln(c.Out, "Invalid username or password. Please try again.")
		}
	}
}

func (c *Console) recordLogin(username, result string) {
	if c.Events != nil {
		c.Events.LoginAttempt(username, c.RemoteAddr, result)
	}
}

// startSession moves to the user's home directory and runs their profile.
func (c *Console) startSession() {
	if c.Motd != "" {
		fmt.Fprintln(c.Out, c.Motd)
	}

	home := path.Join("/home", c.Machine.CurrentUser())
	if err := c.Machine.Chdir(home); err != nil {
		return
	}
	profile := path.Join(home, profileName)
	if _, err := c.Machine.FS().ReadFile(profile, vfs.Separator); err == nil {
		c.submit("run " + profile)
	}
}

func (c *Console) prompt() string {
	who := fmt.Sprintf("%s@%s", c.Machine.CurrentUser(), c.Machine.Name())
	return c.Machine.Colorize(promptColor, who) + " $ "
}

func (c *Console) loop() error {
	for {
		line, err := c.In.ReadLine(c.prompt())
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// Interrupt clears line.
			continue
		case err != nil:
			return err
		case strings.TrimSpace(line) == "":
			continue
		}

		if c.submit(line) == machine.SignalExit {
			return nil
		}
	}
}
