package machine

import (
	"testing"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	cases := map[string]struct {
		line string
		want string
	}{
		"no substitutions":     {line: "echo plain text", want: "echo plain text"},
		"string variable":      {line: "echo $name!", want: "echo bob!"},
		"int variable":         {line: "echo $n", want: "echo 5"},
		"list variable":        {line: "echo $list", want: `echo [1, "a"]`},
		"adjacent variables":   {line: "echo $name$n", want: "echo bob5"},
		"escaped dollar":       {line: `echo \$name`, want: "echo $name"},
		"dollar in value":      {line: "echo $price", want: "echo $n"},
		"capture":              {line: "echo ${echo inner}", want: "echo inner"},
		"nested capture":       {line: "echo ${echo ${echo deep}}", want: "echo deep"},
		"capture of variable":  {line: "echo ${echo $name}", want: "echo bob"},
		"arithmetic":           {line: "echo ((1 + 2 * 3))", want: "echo 7"},
		"grouped arithmetic":   {line: "echo ((1+(2)))", want: "echo 3"},
		"arithmetic variables": {line: "echo (($n * 2))", want: "echo 10"},
		"arithmetic strings":   {line: "echo (($name + '!'))", want: "echo bob!"},
		"arithmetic capture":   {line: "echo ((int(${echo 4}) + 1))", want: "echo 5"},
		"float division":       {line: "echo ((7 / 2))", want: "echo 3.5"},
		"two spans":            {line: "echo ((1)) and ((2))", want: "echo 1 and 2"},
		"plain parentheses":    {line: "echo (not arithmetic)", want: "echo (not arithmetic)"},
		"value not reparsed":   {line: "echo (($quote))", want: "echo ((1))"},
		"large exponent":       {line: "echo ((1 ^ 100000000000000))", want: "echo 1"},
		"overflowing exponent": {line: "echo ((2 ^ 64))", want: "echo 1.8446744073709552e+19"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			tm := newTestMachine(t, exampleTree)
			tm.SetVar("name", expr.Str("bob"))
			tm.SetVar("n", expr.Int(5))
			tm.SetVar("list", expr.List{expr.Int(1), expr.Str("a")})
			tm.SetVar("price", expr.Str("$n"))
			tm.SetVar("quote", expr.Str("((1))"))

			got, sig := tm.Expand(tc.line)
			assert.Equal(t, OK, sig)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpandExpression(t *testing.T) {
	tm := newTestMachine(t, exampleTree)
	tm.SetVar("name", expr.Str("bob"))
	tm.SetVar("n", expr.Int(5))

	got, sig := tm.ExpandExpression("$name == 'bob' and $n > ${echo 3}")
	assert.Equal(t, OK, sig)
	assert.Equal(t, `"bob" == 'bob' and 5 > "3"`, got)
}

// Values are spliced as text in command arguments and as literals where the
// text is evaluated.
func TestExpand_spliceContext(t *testing.T) {
	tm := newTestMachine(t, exampleTree)
	tm.run(t, "cd /a")

	got, sig := tm.Expand("echo ${pwd}")
	assert.Equal(t, OK, sig)
	assert.Equal(t, "echo /a", got)

	got, sig = tm.Expand("echo ((${pwd} + '/b.txt'))")
	assert.Equal(t, OK, sig)
	assert.Equal(t, "echo /a/b.txt", got)

	got, sig = tm.ExpandExpression(`${pwd} == "/a"`)
	assert.Equal(t, OK, sig)
	assert.Equal(t, `"/a" == "/a"`, got)

	assert.Equal(t, "/a\n", tm.run(t, "echo ${pwd}"))
	assert.Equal(t, "match\n", tm.run(t, `if [ ${pwd} == "/a" ] ? echo match : echo differ`))
}

func TestExpand_errors(t *testing.T) {
	cases := map[string]struct {
		line    string
		want    Signal
		printed string
	}{
		"unknown variable": {
			line:    "echo $missing",
			want:    SigVariableNotFound,
			printed: "Error - Variable $missing not found.\n",
		},
		"unknown variable in capture": {
			line: "echo ${echo $missing}",
			want: SigVariableNotFound,
		},
		"failing capture": {
			line: "echo ${nope}",
			want: SigCommandNotFound,
		},
		"bad arithmetic": {
			line: "echo ((1 +))",
			want: SigEvaluation,
		},
		"division by zero": {
			line:    "echo ((1 / 0))",
			want:    SigEvaluation,
			printed: "Error - Evaluation of expression (1 / 0) failed",
		},
		"attribute access": {
			line: "echo ((''.join))",
			want: SigEvaluation,
		},
		"oversized repetition": {
			line:    "echo ((['x'] * 9223372036854775807))",
			want:    SigEvaluation,
			printed: "exceeds the limit",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			tm := newTestMachine(t, exampleTree)
			tm.console.Reset()

			_, sig := tm.Expand(tc.line)
			assert.Equal(t, tc.want, sig)
			assert.Contains(t, tm.console.String(), tc.printed)
		})
	}
}

func TestSubmitLine_expansionFailure(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	out := tm.run(t, "echo $missing; echo never")

	assert.Equal(t, "Error - Variable $missing not found.\n"+
		"Process terminated with error code VARIABLE_NOT_FOUND_ERROR\n", out)
}

func TestLet(t *testing.T) {
	cases := map[string]struct {
		setup []string
		line  string
		want  expr.Value
	}{
		"int":           {line: "let x=1 + 2", want: expr.Int(3)},
		"float":         {line: "let x=1 / 4", want: expr.Float(0.25)},
		"string":        {line: "let x='a' * 3", want: expr.Str("aaa")},
		"bool":          {line: "let x=1 < 2", want: expr.Bool(true)},
		"list":          {line: "let x=[1, 2] + [3]", want: expr.List{expr.Int(1), expr.Int(2), expr.Int(3)}},
		"greater than":  {line: "let x=3 > 2", want: expr.Bool(true)},
		"uses variable": {setup: []string{"let y=4"}, line: "let x=$y ^ 2", want: expr.Int(16)},
		"text variable": {setup: []string{"declare y=4"}, line: "let x=int($y) + 1", want: expr.Int(5)},
		"capture":       {line: "let x=len(${echo hello})", want: expr.Int(5)},
		"filesystem":    {line: "let x=self.resolve('/a/b.txt')", want: expr.Str("hello")},
		"missing path":  {line: "let x=self.resolve('/nope')", want: expr.Bool(false)},
		"directory":     {line: "let x=self.resolve('/a')", want: expr.List{expr.Str("b.txt")}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			tm := newTestMachine(t, exampleTree)
			tm.run(t, tc.setup...)

			assert.Equal(t, OK, tm.SubmitLine(tc.line))
			got, ok := tm.Var("x")
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeclareAndRead_errors(t *testing.T) {
	cases := map[string]Signal{
		"declare novalue":   SigArgumentLength,
		"declare a b=1":     SigInvalidName,
		"let =1":            SigInvalidName,
		"let x=":            SigEvaluation,
		"let x=undefined()": SigEvaluation,
		"read bad-name":     SigInvalidName,
	}

	for line, want := range cases {
		t.Run(line, func(t *testing.T) {
			tm := newTestMachine(t, exampleTree)
			assert.Equal(t, want, tm.SubmitLine(line))
		})
	}
}

func TestRead_emptyInput(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, OK, tm.SubmitLine("read answer"))
	v, ok := tm.Var("answer")
	assert.True(t, ok)
	assert.Equal(t, expr.Str(""), v)
}
