package modules

import (
	"bytes"
	"strings"

	"github.com/benhoyt/goawk/interp"
	"github.com/benhoyt/goawk/parser"
	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

// Awk runs an awk program over files or the lines waiting in the input
// stream. Programs can't run commands or touch the host's files, machine
// variables are visible through ENVIRON.
//
// Field references may be written \$1 so they survive substitution when
// awk is the target of a pipe.
func Awk(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &commands.SimpleVerb{
		Use:   "awk [-F SEP] [-v VAR=VALUE]... PROGRAM [FILE...]",
		Short: "Scan and process patterns in text.",
	}

	opts := cmd.Flags()
	fieldSep := opts.String('F', "", "set the input field separator", "SEP")
	assignments := opts.List('v', "assign a variable before the program runs", "VAR=VALUE")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}
		operands := cmd.Operands()

		source := strings.ReplaceAll(operands[0], `\$`, "$")
		prog, err := parser.ParseProgram([]byte(source), nil)
		if err != nil {
			m.Errorf("awk: %v", err)
			return nil, machine.SigEvaluation
		}

		var input []string
		if files := operands[1:]; len(files) > 0 {
			for _, path := range files {
				content, sig := commands.ReadContent(m, path)
				if sig != machine.OK {
					return nil, sig
				}
				input = append(input, content)
			}
		} else {
			input = m.InputStream()
			m.ReplaceInputStream(nil)
		}

		var vars []string
		if *fieldSep != "" {
			vars = append(vars, "FS", *fieldSep)
		}
		for _, assignment := range *assignments {
			name, value, ok := strings.Cut(assignment, "=")
			if !ok {
				m.Errorf("awk: expected VAR=VALUE, got %s", assignment)
				return nil, machine.SigArgumentLength
			}
			vars = append(vars, name, value)
		}

		environ := []string{}
		for _, name := range m.VarNames() {
			value, _ := m.Var(name)
			environ = append(environ, name, value.String())
		}

		var stdout, stderr bytes.Buffer
		config := &interp.Config{
			Argv0:        "awk",
			Stdin:        strings.NewReader(joinInput(input)),
			Output:       &stdout,
			Error:        &stderr,
			Vars:         vars,
			Environ:      environ,
			NoExec:       true,
			NoFileWrites: true,
			NoFileReads:  true,
		}
		if _, err := interp.ExecProgram(prog, config); err != nil {
			m.Errorf("awk: %v", err)
			return nil, machine.SigEvaluation
		}
		if stderr.Len() > 0 {
			m.Errorf("awk: %s", strings.TrimSpace(stderr.String()))
		}
		return expr.Str(strings.TrimSuffix(stdout.String(), "\n")), machine.OK
	})
}

// joinInput joins the input as newline terminated lines.
func joinInput(input []string) string {
	if len(input) == 0 {
		return ""
	}
	text := strings.Join(input, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

var _ machine.VerbFunc = Awk

func init() {
	mustAddModule("awk", &machine.Command{
		Use:           "awk [-F SEP] [-v VAR=VALUE]... PROGRAM [FILE...]",
		Short:         "Scan and process patterns in text.",
		RawArgs:       true,
		ConsumesInput: true,
		Run:           Awk,
	})
}
