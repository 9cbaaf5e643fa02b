// Package machine is the doorOS execution engine: it expands, parses,
// dispatches and routes the output of command lines, and runs scripts.
//
// A Machine is single threaded. Callers that share one between goroutines
// must serialize calls to it.
package machine

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
)

var (
	// ErrBadCredentials is returned by Login for an unknown user or wrong
	// password.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrRootLogin is returned by Login for the root account.
	ErrRootLogin = errors.New("cannot login as root")
)

const (
	// ShellProcess is the process every machine starts with.
	ShellProcess = "shell"

	// DefaultMaxScriptSteps bounds script execution when Options doesn't.
	DefaultMaxScriptSteps = 10000

	maxScriptDepth = 64
)

// Prompter reads a line of interactive input.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// PrompterFunc adapts a function to a Prompter.
type PrompterFunc func(prompt string) (string, error)

func (f PrompterFunc) Prompt(prompt string) (string, error) {
	return f(prompt)
}

// Observer is told about every statement the machine dispatches.
type Observer interface {
	RanCommand(user, verb, args string, sig Signal)
}

// Network is the relay between machines.
type Network interface {
	// Address returns the machine's address on the network.
	Address(m *Machine) (int, bool)
	// Send delivers content to the machine at address to.
	Send(from *Machine, to int, content string) error
	// Link replaces the input stream of the machine at address to with
	// lines. It fails if the recipient isn't accepting links.
	Link(from *Machine, to int, lines []string) error
	// Listen sets whether the machine accepts links.
	Listen(m *Machine, accept bool) error
}

// Options configure a new Machine.
type Options struct {
	Name      string
	OSVersion string

	Users map[string]*User

	Stdout io.Writer
	Stderr io.Writer

	// Prompter is consulted when the input stream is empty.
	Prompter Prompter
	Observer Observer

	// Color enables colored error messages.
	Color bool

	// MaxScriptSteps bounds how many lines a single script may run.
	MaxScriptSteps int

	// Modules are verbs the package manager can install.
	Modules map[string]Verb

	// SaveState is called by shutdown with the machine's state.
	SaveState func(*Snapshot) error

	// Rand seeds the random device, nil uses the time.
	Rand *rand.Rand
}

// Machine is one doorOS instance.
type Machine struct {
	name      string
	osVersion string

	fs  *vfs.FS
	cwd string

	users map[string]*User
	user  string

	vars      map[string]expr.Value
	queue     []string
	input     []string
	processes []string

	verbs   map[string]Verb
	modules map[string]Verb

	out        outputState
	lastOutput expr.Value
	frames     []*frame

	stdout   io.Writer
	stderr   io.Writer
	prompter Prompter
	observer Observer
	network  Network
	color    bool
	rand     *rand.Rand
	bootTime time.Time

	maxScriptSteps int
	saveState      func(*Snapshot) error
}

// New creates a machine that owns root.
func New(root *vfs.Dir, opts Options) *Machine {
	m := &Machine{
		name:           opts.Name,
		osVersion:      opts.OSVersion,
		fs:             vfs.New(root),
		cwd:            vfs.Separator,
		users:          make(map[string]*User),
		vars:           make(map[string]expr.Value),
		processes:      []string{ShellProcess},
		verbs:          make(map[string]Verb),
		modules:        make(map[string]Verb),
		stdout:         opts.Stdout,
		stderr:         opts.Stderr,
		prompter:       opts.Prompter,
		observer:       opts.Observer,
		color:          opts.Color,
		rand:           opts.Rand,
		maxScriptSteps: opts.MaxScriptSteps,
		saveState:      opts.SaveState,
		bootTime:       time.Now(),
	}
	if m.name == "" {
		m.name = "DoorOSMachine"
	}
	if m.osVersion == "" {
		m.osVersion = "3.1"
	}
	if m.stdout == nil {
		m.stdout = io.Discard
	}
	if m.stderr == nil {
		m.stderr = m.stdout
	}
	if m.rand == nil {
		m.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.maxScriptSteps <= 0 {
		m.maxScriptSteps = DefaultMaxScriptSteps
	}
	m.users[RootUser] = &User{Password: "toor", Permission: PermRoot}
	for name, u := range opts.Users {
		copied := *u
		m.users[name] = &copied
	}
	for name, v := range opts.Modules {
		m.modules[name] = v
	}
	for name, v := range builtins {
		m.verbs[name] = v
	}
	return m
}

// Name returns the machine's host name.
func (m *Machine) Name() string {
	return m.name
}

// OSVersion returns the doorOS version string.
func (m *Machine) OSVersion() string {
	return m.osVersion
}

// BootTime is when the machine was created.
func (m *Machine) BootTime() time.Time {
	return m.bootTime
}

// FS returns the machine's filesystem.
func (m *Machine) FS() *vfs.FS {
	return m.fs
}

// Cwd returns the working directory. If the directory was removed the
// working directory clamps back to the root.
func (m *Machine) Cwd() string {
	if _, abs, err := m.fs.ResolveDir(m.cwd, vfs.Separator); err == nil {
		m.cwd = abs
	} else {
		m.cwd = vfs.Separator
	}
	return m.cwd
}

// Chdir changes the working directory.
func (m *Machine) Chdir(path string) error {
	_, abs, err := m.fs.ResolveDir(path, m.Cwd())
	if err != nil {
		return err
	}
	m.cwd = abs
	return nil
}

// Stdout is where delivered output is printed.
func (m *Machine) Stdout() io.Writer {
	return m.stdout
}

// Stderr is where verbs report problems.
func (m *Machine) Stderr() io.Writer {
	return m.stderr
}

// SetOutput replaces the console writers.
func (m *Machine) SetOutput(stdout, stderr io.Writer) {
	m.stdout = stdout
	m.stderr = stderr
}

// SetPrompter replaces the interactive input source.
func (m *Machine) SetPrompter(p Prompter) {
	m.prompter = p
}

var errorColor = color.New(color.FgRed, color.Bold)

// Errorf writes a human readable error to stderr.
func (m *Machine) Errorf(format string, a ...interface{}) {
	msg := "Error - " + fmt.Sprintf(format, a...)
	if m.color {
		msg = errorColor.Sprint(msg)
	}
	fmt.Fprintln(m.stderr, msg)
}

// ColorEnabled reports whether the console supports color.
func (m *Machine) ColorEnabled() bool {
	return m.color
}

// Colorize applies c to the text if the console supports color.
func (m *Machine) Colorize(c *color.Color, text string) string {
	if m.color {
		return c.Sprint(text)
	}
	return text
}

// Rand returns the machine's random source.
func (m *Machine) Rand() *rand.Rand {
	return m.rand
}

// Var returns the value of a variable.
func (m *Machine) Var(name string) (expr.Value, bool) {
	v, ok := m.vars[name]
	return v, ok
}

// SetVar stores a variable.
func (m *Machine) SetVar(name string, v expr.Value) {
	m.vars[name] = v
}

// VarNames returns the sorted names of all variables.
func (m *Machine) VarNames() []string {
	var out []string
	for name := range m.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Queue returns a copy of the pending statements.
func (m *Machine) Queue() []string {
	return append([]string(nil), m.queue...)
}

// Enqueue appends statements to the end of the queue.
func (m *Machine) Enqueue(lines ...string) {
	m.queue = append(m.queue, lines...)
}

// popQueue removes the first pending statement.
func (m *Machine) popQueue() (string, bool) {
	if len(m.queue) == 0 {
		return "", false
	}
	line := m.queue[0]
	m.queue = m.queue[1:]
	return line, true
}

// InjectInputStream appends lines to the buffer read before prompting.
func (m *Machine) InjectInputStream(lines ...string) {
	m.input = append(m.input, lines...)
}

// InputStream returns a copy of the buffered input.
func (m *Machine) InputStream() []string {
	return append([]string(nil), m.input...)
}

// ReplaceInputStream swaps the whole input buffer.
func (m *Machine) ReplaceInputStream(lines []string) {
	m.input = append([]string(nil), lines...)
}

// ReadInput returns the oldest buffered input line, or prompts for one if
// the buffer is empty.
func (m *Machine) ReadInput(prompt string) (string, error) {
	if len(m.input) > 0 {
		line := m.input[0]
		m.input = m.input[1:]
		return line, nil
	}
	if m.prompter == nil {
		return "", io.EOF
	}
	return m.prompter.Prompt(prompt)
}

// Processes returns the running process names in start order.
func (m *Machine) Processes() []string {
	return append([]string(nil), m.processes...)
}

// HasProcess reports whether the named process is running.
func (m *Machine) HasProcess(name string) bool {
	for _, p := range m.processes {
		if p == name {
			return true
		}
	}
	return false
}

// StartProcess adds a process, running processes aren't duplicated.
func (m *Machine) StartProcess(name string) {
	if !m.HasProcess(name) {
		m.processes = append(m.processes, name)
	}
}

// StopProcess removes a process, it returns false if it wasn't running.
func (m *Machine) StopProcess(name string) bool {
	for i, p := range m.processes {
		if p == name {
			m.processes = append(m.processes[:i], m.processes[i+1:]...)
			return true
		}
	}
	return false
}

// InstallVerb adds or replaces a verb.
func (m *Machine) InstallVerb(name string, v Verb) {
	m.verbs[name] = v
}

// RemoveVerb removes a verb, it returns false if it wasn't installed.
func (m *Machine) RemoveVerb(name string) bool {
	if _, ok := m.verbs[name]; !ok {
		return false
	}
	delete(m.verbs, name)
	return true
}

// LookupVerb returns an installed verb.
func (m *Machine) LookupVerb(name string) (Verb, bool) {
	v, ok := m.verbs[name]
	return v, ok
}

// Describe returns the metadata of an installed verb.
func (m *Machine) Describe(name string) (*Command, bool) {
	v, ok := m.verbs[name]
	if !ok {
		return nil, false
	}
	return commandOf(v), true
}

// VerbNames returns the sorted names of the installed verbs.
func (m *Machine) VerbNames() []string {
	var out []string
	for name := range m.verbs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Module returns a verb the package manager can install.
func (m *Machine) Module(name string) (Verb, bool) {
	v, ok := m.modules[name]
	return v, ok
}

// ModuleNames returns the sorted names of the available modules.
func (m *Machine) ModuleNames() []string {
	var out []string
	for name := range m.modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetNetwork attaches the machine to a relay.
func (m *Machine) SetNetwork(n Network) {
	m.network = n
}

// Network returns the attached relay, or nil.
func (m *Machine) Network() Network {
	return m.network
}

// LastOutput returns the most recently echoed value.
func (m *Machine) LastOutput() expr.Value {
	return m.lastOutput
}

// Shutdown saves the machine's state if a saver was configured.
func (m *Machine) Shutdown() error {
	if m.saveState == nil {
		return nil
	}
	return m.saveState(m.Snapshot())
}
