package machine

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
)

// builtins are the verbs the engine itself depends on, every machine
// starts with them.
var builtins = map[string]Verb{
	"if": &Command{
		Use:     "if [ COND ] ? THEN : ELSE",
		Short:   "Run THEN if COND is true, otherwise ELSE.",
		RawArgs: true,
		Run:     If,
	},
	"run": &Command{
		Use:           "run FILE",
		Short:         "Run a script.",
		ConsumesInput: true,
		Run:           Run,
	},
	"read": &Command{
		Use:           "read NAME",
		Short:         "Read a line of input into a variable.",
		ConsumesInput: true,
		Run:           Read,
	},
	"declare": &Command{
		Use:   "declare NAME=VALUE",
		Short: "Store text in a variable.",
		Run:   Declare,
	},
	"let": &Command{
		Use:     "let NAME=EXPR",
		Short:   "Store the value of an expression in a variable.",
		RawArgs: true,
		Run:     Let,
	},
	"sudo": &Command{
		Use:      "sudo COMMAND",
		Short:    "Run a command as root.",
		Requires: PermSudo,
		Run:      Sudo,
	},
	"goto": &Command{
		Use:   "goto LABEL",
		Short: "Jump to the :LABEL line of a script, return comes back.",
		Run:   scriptOnly,
	},
	"return": &Command{
		Use:   "return",
		Short: "Resume after the last goto.",
		Run:   scriptOnly,
	},
}

func scriptOnly(m *Machine, args string) (expr.Value, Signal) {
	m.Errorf("goto and return can only be used in scripts.")
	return nil, SigScriptControl
}

var variableName = regexp.MustCompile(`^\w+$`)

// splitAssignment parses NAME=VALUE.
func (m *Machine) splitAssignment(args string) (name, value string, sig Signal) {
	idx := strings.Index(args, "=")
	if idx < 0 {
		m.Errorf("Expected NAME=VALUE.")
		return "", "", SigArgumentLength
	}
	name = strings.TrimSpace(args[:idx])
	if !variableName.MatchString(name) {
		m.Errorf("Invalid variable name %q.", name)
		return "", "", SigInvalidName
	}
	return name, strings.TrimSpace(args[idx+1:]), OK
}

// Declare stores text in a variable.
func Declare(m *Machine, args string) (expr.Value, Signal) {
	name, value, sig := m.splitAssignment(args)
	if sig != OK {
		return nil, sig
	}
	m.vars[name] = expr.Str(value)
	return nil, OK
}

// Let evaluates an expression and stores the result.
func Let(m *Machine, args string) (expr.Value, Signal) {
	name, text, sig := m.splitAssignment(args)
	if sig != OK {
		return nil, sig
	}
	expanded, sig := m.ExpandExpression(text)
	if sig != OK {
		return nil, sig
	}
	value, err := expr.Eval(expanded, m.resolver())
	if err != nil {
		m.Errorf("Evaluation of expression %s failed: %v", text, err)
		return nil, SignalFor(err)
	}
	m.vars[name] = value
	return nil, OK
}

// Read stores the next input line in a variable.
func Read(m *Machine, args string) (expr.Value, Signal) {
	name := strings.TrimPrefix(strings.TrimSpace(args), "$")
	if !variableName.MatchString(name) {
		m.Errorf("Invalid variable name %q.", name)
		return nil, SigInvalidName
	}
	line, err := m.ReadInput("Enter input: ")
	if err != nil && !errors.Is(err, io.EOF) {
		m.Errorf("Couldn't read input: %v", err)
		return nil, SignalError
	}
	m.vars[name] = expr.Str(line)
	return nil, OK
}

// Run runs a script file.
func Run(m *Machine, args string) (expr.Value, Signal) {
	if args == "" {
		m.Errorf("Expected a file to run.")
		return nil, SigArgumentLength
	}
	return m.RunScript(args)
}

// Sudo runs a command as root.
func Sudo(m *Machine, args string) (expr.Value, Signal) {
	verb, rest := SplitVerb(args)
	if verb == "" {
		m.Errorf("Expected a command to run.")
		return nil, SigArgumentLength
	}
	user := m.user
	m.user = RootUser
	defer func() { m.user = user }()
	return m.Dispatch(verb, rest)
}

// If evaluates a condition and runs one of its branches next.
func If(m *Machine, args string) (expr.Value, Signal) {
	cond, ok := ParseConditional(args)
	if !ok {
		m.Errorf("if statement does not contain condition.")
		return nil, SigNoCondition
	}

	expanded, sig := m.ExpandExpression(RewriteTests(cond.Condition))
	if sig != OK {
		return nil, sig
	}
	result, err := expr.Eval(expanded, m.resolver())
	if err != nil {
		m.Errorf("Evaluation of condition %s failed: %v", cond.Condition, err)
		return nil, SignalFor(err)
	}

	switch {
	case result.Truthy() && cond.Then != "":
		m.injectNext(cond.Then)
	case !result.Truthy() && cond.Else != "":
		m.injectNext(cond.Else)
	}
	return nil, OK
}
