package commands

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-8][0-8]?[0-8]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

// Echo implements a limited echo command.
func Echo(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "echo [-e] [ARG] ...",
		Short: "Display a line of text.",

		// Text that looks like a flag is still printed.
		NeverBail: true,
	}

	escaped := cmd.Flags().Bool('e', "interpret backslash escapes")

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		out := strings.Join(cmd.Operands(), " ")
		if *escaped {
			out = unescape(out)
		}
		return expr.Str(out), machine.OK
	})
}

// RawEcho prints its arguments untouched, pipes and redirections included.
func RawEcho(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	return expr.Str(unescape(args)), machine.OK
}

var _ machine.VerbFunc = Echo

func init() {
	addVerb("echo", Echo)
	mustAddVerb("rawecho", &machine.Command{
		Use:     "rawecho TEXT",
		Short:   "Display text without interpreting pipes or redirections.",
		NoSplit: true,
		Run:     RawEcho,
	})
}
