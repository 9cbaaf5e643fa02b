package commands

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/fatih/color"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	getopt "github.com/pborman/getopt/v2"
)

// AllVerbs holds every verb Install adds to a machine.
var AllVerbs = make(map[string]machine.Verb)

// addVerb registers a plain verb.
func addVerb(name string, fn machine.VerbFunc) {
	mustAddVerb(name, fn)
}

// mustAddVerb registers a verb, panicking if the name is taken.
func mustAddVerb(name string, v machine.Verb) {
	if _, ok := AllVerbs[name]; ok {
		panic(fmt.Sprintf("verb %q registered twice", name))
	}
	AllVerbs[name] = v
}

// Install adds every registered verb to the machine.
func Install(m *machine.Machine) {
	for name, v := range AllVerbs {
		m.InstallVerb(name, v)
	}
}

// VerbNames returns the sorted names of the registered verbs.
func VerbNames() []string {
	var out []string
	for name := range AllVerbs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func BytesToHuman(bytes int64) string {
	for _, e := range []struct {
		unit  string
		power int64
	}{
		{"P", 1e15},
		{"T", 1e12},
		{"G", 1e9},
		{"M", 1e6},
		{"K", 1e3},
	} {
		quotient := bytes / e.power
		switch {
		case quotient == 0:
			continue
		case quotient > 10:
			return fmt.Sprintf("%d%s", quotient, e.unit)
		default:
			return fmt.Sprintf("%0.1f%s", float64(bytes)/float64(e.power), e.unit)
		}
	}

	return fmt.Sprintf("%d", bytes)
}

// SplitArgs splits verb arguments into words. Quotes group words when they
// balance, otherwise the arguments are split on whitespace.
func SplitArgs(args string) []string {
	words, err := shlex.Split(args, true)
	if err != nil {
		return strings.Fields(args)
	}
	return words
}

type SimpleVerb struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the verb.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail ignores flag parsing errors and always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the verb's flag set.
func (s *SimpleVerb) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// Name is the first word of Use.
func (s *SimpleVerb) Name() string {
	if fields := strings.Fields(s.Use); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Help renders the usage, description and flags of the verb.
func (s *SimpleVerb) Help() string {
	var w bytes.Buffer
	fmt.Fprint(&w, "usage: ")
	fmt.Fprintln(&w, s.Use)
	fmt.Fprintln(&w, s.Short)
	fmt.Fprintln(&w)
	fmt.Fprintln(&w, "Flags:")
	s.Flags().PrintOptions(&w)
	return strings.TrimRight(w.String(), "\n")
}

// Run parses the arguments, if flag parsing was successful call the
// callback. Operands are available through Flags().Args().
func (s *SimpleVerb) Run(m *machine.Machine, args string, callback func() (expr.Value, machine.Signal)) (expr.Value, machine.Signal) {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(append([]string{s.Name()}, SplitArgs(args)...), nil)
	if err != nil && !s.NeverBail {
		m.Errorf("%s: %s", s.Name(), err)
		fmt.Fprintln(m.Stderr(), s.Help())
		return nil, machine.SigArgumentLength
	}

	if *s.ShowHelp {
		return expr.Str(s.Help()), machine.OK
	}

	return callback()
}

// Operands returns the arguments left after flag parsing.
func (s *SimpleVerb) Operands() []string {
	return s.Flags().Args()
}

// RequireOperands reports an ARGUMENT_LENGTH_ERROR unless there are at least
// n operands.
func (s *SimpleVerb) RequireOperands(m *machine.Machine, n int) machine.Signal {
	if len(s.Operands()) < n {
		m.Errorf("Insufficient arguments, usage: %s", s.Use)
		return machine.SigArgumentLength
	}
	return machine.OK
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

type ColorPrinter struct {
	value *string
	m     *machine.Machine
}

// Init sets up the flag and machine to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, m *machine.Machine) {
	c.m = m
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

// ShouldColor is true for auto when the output goes straight to a color
// console.
func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.m.ColorEnabled() && c.m.OutputMode() == machine.ModeEcho
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}

// lines joins output lines into a single value, nothing becomes nil.
func lines(out []string) expr.Value {
	if len(out) == 0 {
		return nil
	}
	return expr.Str(strings.Join(out, "\n"))
}
