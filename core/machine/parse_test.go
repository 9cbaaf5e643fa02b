package machine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	cases := map[string]struct {
		line  string
		first string
		rest  []string
	}{
		"single":    {line: "echo a", first: "echo a", rest: []string{}},
		"several":   {line: "echo a; echo b;echo c", first: "echo a", rest: []string{" echo b", "echo c"}},
		"trailing":  {line: "echo a;", first: "echo a", rest: []string{""}},
		"empty":     {line: "", first: "", rest: []string{}},
		"only semi": {line: ";", first: "", rest: []string{""}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			first, rest := SplitStatements(tc.line)
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestParseRedirection(t *testing.T) {
	cases := map[string]struct {
		statement string
		want      Redirection
	}{
		"plain": {
			statement: "echo hi",
			want:      Redirection{Command: "echo hi", Mode: ModeEcho},
		},
		"overwrite": {
			statement: "echo hi > out.txt ",
			want:      Redirection{Command: "echo hi ", Mode: ModeFileOverwrite, Destination: "out.txt"},
		},
		"append": {
			statement: "echo hi >> out.txt",
			want:      Redirection{Command: "echo hi ", Mode: ModeFileAppend, Destination: "out.txt"},
		},
		"pipe": {
			statement: "echo hi | cat",
			want:      Redirection{Command: "echo hi ", Mode: ModePipe, Continuation: "cat"},
		},
		"pipe wins over redirection": {
			statement: "echo hi > a | cat > b",
			want:      Redirection{Command: "echo hi > a ", Mode: ModePipe, Continuation: "cat > b"},
		},
		"pipe chain": {
			statement: "a | b | c",
			want:      Redirection{Command: "a ", Mode: ModePipe, Continuation: "b | c"},
		},
		"append wins over overwrite": {
			statement: "echo > a >> b",
			want:      Redirection{Command: "echo > a ", Mode: ModeFileAppend, Destination: "b"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got := ParseRedirection(tc.statement)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseRedirection() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitVerb(t *testing.T) {
	cases := []struct {
		statement string
		verb      string
		args      string
	}{
		{"", "", ""},
		{"ls", "ls", ""},
		{"  ls   -a  /  ", "ls", "-a  /"},
		{"echo\thello", "echo", "hello"},
	}

	for _, tc := range cases {
		t.Run(tc.statement, func(t *testing.T) {
			verb, args := SplitVerb(tc.statement)
			assert.Equal(t, tc.verb, verb)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "echo", ModeEcho.String())
	assert.Equal(t, "pipe", ModePipe.String())
	assert.Equal(t, "append", ModeFileAppend.String())
	assert.Equal(t, "overwrite", ModeFileOverwrite.String())
}

func TestParseConditional(t *testing.T) {
	cases := map[string]struct {
		args   string
		want   Conditional
		wantOK bool
	}{
		"full": {
			args:   "[ $a > 1 ] ? echo big : echo small",
			want:   Conditional{Condition: "$a > 1", Then: "echo big", Else: "echo small"},
			wantOK: true,
		},
		"then only": {
			args:   "[ True ] ? echo yes",
			want:   Conditional{Condition: "True", Then: "echo yes"},
			wantOK: true,
		},
		"no branches": {
			args:   "[ True ]",
			want:   Conditional{Condition: "True"},
			wantOK: true,
		},
		"else only": {
			args:   "[ True ] ? : echo no",
			want:   Conditional{Condition: "True", Else: "echo no"},
			wantOK: true,
		},
		"nested brackets": {
			args:   "[ [1, 2][0] == 1 ] ? echo one",
			want:   Conditional{Condition: "[1, 2][0] == 1", Then: "echo one"},
			wantOK: true,
		},
		"quoted bracket": {
			args:   "[ ']' == ']' ] ? echo same",
			want:   Conditional{Condition: "']' == ']'", Then: "echo same"},
			wantOK: true,
		},
		"colon without spaces stays in then": {
			args:   "[ True ] ? echo a:b",
			want:   Conditional{Condition: "True", Then: "echo a:b"},
			wantOK: true,
		},
		"missing": {args: "? echo yes"},
		"empty":   {args: "[  ] ? echo yes"},
		"open":    {args: "[ True ? echo yes"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, ok := ParseConditional(tc.args)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRewriteTests(t *testing.T) {
	cases := map[string]struct {
		cond string
		want string
	}{
		"comparisons": {
			cond: "$a -gt 1 and $b -le 2",
			want: "$a > 1 and $b <= 2",
		},
		"all comparisons": {
			cond: "1 -eq 1 -ne 2 -lt 3 -ge 0",
			want: "1 == 1 != 2 < 3 >= 0",
		},
		"directory": {
			cond: "-d /tmp",
			want: `(type(self.resolve("/tmp")) == 'list')`,
		},
		"exists with variable": {
			cond: "-e $path",
			want: `(type(self.resolve($path)) == 'str')`,
		},
		"size": {
			cond: "-s 'notes.txt'",
			want: `(type(self.resolve('notes.txt')) == 'str' and len(self.resolve('notes.txt')) > 0)`,
		},
		"length": {
			cond: "-n $x or -z 12",
			want: `(len(str($x)) > 0) or (len(str(12)) == 0)`,
		},
		"negated": {
			cond: "!-e /x",
			want: `!(type(self.resolve("/x")) == 'str')`,
		},
		"parenthesized": {
			cond: "(-d /x)",
			want: `((type(self.resolve("/x")) == 'list'))`,
		},
		"negative numbers untouched": {
			cond: "-5 < -d2",
			want: "-5 < -d2",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, RewriteTests(tc.cond))
		})
	}
}
