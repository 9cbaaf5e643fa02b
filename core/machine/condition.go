package machine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Conditional is a parsed "[ COND ] ? THEN : ELSE" statement.
type Conditional struct {
	Condition string
	Then      string
	Else      string
}

// ParseConditional splits the arguments of if. It returns false if there's
// no bracketed condition. THEN and ELSE are split on the first " : ".
func ParseConditional(args string) (Conditional, bool) {
	open := strings.Index(args, "[")
	if open < 0 {
		return Conditional{}, false
	}
	closing := matchBracket(args, open)
	if closing < 0 {
		return Conditional{}, false
	}

	out := Conditional{Condition: strings.TrimSpace(args[open+1 : closing])}
	if out.Condition == "" {
		return Conditional{}, false
	}

	rest := strings.TrimSpace(args[closing+1:])
	if !strings.HasPrefix(rest, "?") {
		return out, true
	}
	branches := " " + rest[1:] + " "
	if idx := strings.Index(branches, " : "); idx >= 0 {
		out.Then = strings.TrimSpace(branches[:idx])
		out.Else = strings.TrimSpace(branches[idx+3:])
	} else {
		out.Then = strings.TrimSpace(branches)
	}
	return out, true
}

// matchBracket returns the index of the "]" closing the "[" at open,
// skipping quoted strings, or -1.
func matchBracket(s string, open int) int {
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
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	fileTest       = regexp.MustCompile(`(^|[\s(!])-([desnz])\s+([^\s()]+)`)
	comparisonTest = regexp.MustCompile(`(^|\s)-(gt|lt|ge|le|eq|ne)(\s|$)`)

	comparisonOperators = map[string]string{
		"gt": ">",
		"lt": "<",
		"ge": ">=",
		"le": "<=",
		"eq": "==",
		"ne": "!=",
	}
)

// RewriteTests converts shell style tests into expressions:
// -d/-e/-s PATH check the filesystem through self.resolve, -n/-z X check
// the length of X and -gt, -lt, -ge, -le, -eq, -ne become comparisons.
func RewriteTests(cond string) string {
	cond = fileTest.ReplaceAllStringFunc(cond, func(match string) string {
		groups := fileTest.FindStringSubmatch(match)
		prefix, flag, operand := groups[1], groups[2], testOperand(groups[3])
		resolved := "self.resolve(" + operand + ")"

		var test string
		switch flag {
		case "d":
			test = "type(" + resolved + ") == 'list'"
		case "e":
			test = "type(" + resolved + ") == 'str'"
		case "s":
			test = "type(" + resolved + ") == 'str' and len(" + resolved + ") > 0"
		case "n":
			test = "len(str(" + operand + ")) > 0"
		case "z":
			test = "len(str(" + operand + ")) == 0"
		}
		return prefix + "(" + test + ")"
	})

	// Run twice so adjacent matches that share a space are both replaced.
	for i := 0; i < 2; i++ {
		cond = comparisonTest.ReplaceAllStringFunc(cond, func(match string) string {
			groups := comparisonTest.FindStringSubmatch(match)
			return groups[1] + comparisonOperators[groups[2]] + groups[3]
		})
	}
	return cond
}

// testOperand quotes bare words so paths and text can be written without
// quotes, variables and literals are left for expansion and evaluation.
func testOperand(operand string) string {
	switch operand[0] {
	case '$', '\'', '"':
		return operand
	}
	if _, err := strconv.ParseFloat(operand, 64); err == nil {
		return operand
	}
	return strconv.Quote(operand)
}

// machineSelf exposes the filesystem to expressions.
type machineSelf struct {
	m *Machine
}

func (m *Machine) resolver() expr.Self {
	return machineSelf{m}
}

// Resolve returns a List of child names for a directory, the Str content of
// a file or Bool(false) if the path doesn't resolve.
func (s machineSelf) Resolve(path string) (expr.Value, error) {
	node, err := s.m.fs.Resolve(path, s.m.Cwd())
	if err != nil {
		return expr.Bool(false), nil
	}
	switch node := node.(type) {
	case *vfs.Dir:
		out := expr.List{}
		for _, name := range node.Names() {
			out = append(out, expr.Str(name))
		}
		return out, nil
	case *vfs.File:
		switch node.Device() {
		case vfs.DeviceNull:
			return expr.Str(""), nil
		case vfs.DeviceRandom:
			return expr.Str(strconv.FormatFloat(s.m.rand.Float64(), 'f', -1, 64)), nil
		}
		return expr.Str(node.Content), nil
	}
	return expr.Bool(false), nil
}
