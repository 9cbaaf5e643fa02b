package machine

import (
	"regexp"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
)

var (
	captureExpression  = regexp.MustCompile(`\$\{([^{}]*)\}`)
	variableExpression = regexp.MustCompile(`\$(\w+)`)
)

const (
	// escapedDollar stands in for "$" characters that must not be expanded:
	// ones escaped with a backslash and ones inside substituted values.
	escapedDollar = "\x00"

	maxSubstitutions = 100
)

// Expand substitutes command captures, variables and arithmetic in a
// command line. Values are spliced in as plain text, except inside
// ((...)) spans where they're written as expression literals.
func (m *Machine) Expand(line string) (string, Signal) {
	return m.expand(line, false)
}

// ExpandExpression is like Expand for text that will be evaluated as a
// whole, so every value is written as an expression literal.
func (m *Machine) ExpandExpression(text string) (string, Signal) {
	return m.expand(text, true)
}

func (m *Machine) expand(line string, exprContext bool) (string, Signal) {
	line = strings.ReplaceAll(line, `\$`, escapedDollar)

	line, sig := m.expandCaptures(line, exprContext)
	if sig != OK {
		return "", sig
	}
	line, sig = m.expandVariables(line, exprContext)
	if sig != OK {
		return "", sig
	}
	line, sig = m.expandArithmetic(line, exprContext)
	if sig != OK {
		return "", sig
	}

	return strings.ReplaceAll(line, escapedDollar, "$"), OK
}

// expandCaptures replaces ${...} spans with the output of running their
// contents, innermost first.
func (m *Machine) expandCaptures(line string, exprContext bool) (string, Signal) {
	for i := 0; ; i++ {
		loc := captureExpression.FindStringSubmatchIndex(line)
		if loc == nil {
			return line, OK
		}
		if i >= maxSubstitutions {
			m.Errorf("Too many command substitutions.")
			return "", SigEvaluation
		}

		value, sig := m.capture(line[loc[2]:loc[3]])
		if sig != OK {
			return "", sig
		}

		var text string
		if value != nil {
			text = render(value, exprContext || insideArithmetic(line, loc[0]))
		}
		line = line[:loc[0]] + protect(text) + line[loc[1]:]
	}
}

// capture runs one statement without routing its output. Verbs see the
// capture as a pipe.
func (m *Machine) capture(statement string) (expr.Value, Signal) {
	saved := m.out
	m.out = outputState{mode: ModePipe}
	defer func() { m.out = saved }()

	verb, args := SplitVerb(statement)
	if !m.traits(verb).RawArgs {
		expanded, sig := m.expand(statement, false)
		if sig != OK {
			return nil, sig
		}
		verb, args = SplitVerb(expanded)
	}
	return m.Dispatch(verb, args)
}

func (m *Machine) expandVariables(line string, exprContext bool) (string, Signal) {
	var sb strings.Builder
	last := 0
	for _, loc := range variableExpression.FindAllStringSubmatchIndex(line, -1) {
		name := line[loc[2]:loc[3]]
		value, ok := m.vars[name]
		if !ok {
			m.Errorf("Variable $%s not found.", name)
			return "", SigVariableNotFound
		}
		sb.WriteString(line[last:loc[0]])
		sb.WriteString(protect(render(value, exprContext || insideArithmetic(line, loc[0]))))
		last = loc[1]
	}
	sb.WriteString(line[last:])
	return sb.String(), OK
}

// expandArithmetic replaces ((...)) spans with their evaluated value.
// Scanning resumes after each replacement so values are never re-evaluated.
func (m *Machine) expandArithmetic(line string, exprContext bool) (string, Signal) {
	pos := 0
	for {
		start, end, ok := findArithmetic(line, pos)
		if !ok {
			return line, OK
		}
		// The outer parentheses are dropped, the inner ones group the
		// expression.
		inner := strings.ReplaceAll(line[start+1:end], escapedDollar, "$")
		value, err := expr.Eval(inner, m.resolver())
		if err != nil {
			m.Errorf("Evaluation of expression %s failed: %v", strings.TrimSpace(inner), err)
			return "", SignalFor(err)
		}
		text := protect(render(value, exprContext))
		line = line[:start] + text + line[end+1:]
		pos = start + len(text)
	}
}

// findArithmetic finds the first ((...)) span at or after from. end is the
// index of the closing parenthesis.
func findArithmetic(s string, from int) (start, end int, ok bool) {
	for from < len(s) {
		idx := strings.Index(s[from:], "((")
		if idx < 0 {
			return 0, 0, false
		}
		start = from + idx
		end = matchParen(s, start)
		if end < 0 {
			return 0, 0, false
		}
		// Spans end in "))", other groups are left as text.
		if s[end-1] == ')' {
			return start, end, true
		}
		from = start + 1
	}
	return 0, 0, false
}

// matchParen returns the index of the parenthesis closing the one at open,
// skipping quoted strings, or -1.
func matchParen(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func insideArithmetic(line string, pos int) bool {
	for from := 0; ; {
		start, end, ok := findArithmetic(line, from)
		if !ok || start > pos {
			return false
		}
		if pos < end {
			return true
		}
		from = end + 1
	}
}

func render(v expr.Value, literal bool) string {
	if literal {
		return v.Literal()
	}
	return v.String()
}

func protect(text string) string {
	return strings.ReplaceAll(text, "$", escapedDollar)
}
