package expr

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSelf map[string]Value

func (f fakeSelf) Resolve(path string) (Value, error) {
	if v, ok := f[path]; ok {
		return v, nil
	}
	return Bool(false), nil
}

func TestEval(t *testing.T) {
	self := fakeSelf{
		"/home":       List{Str("a.txt"), Str("b")},
		"/home/a.txt": Str("hello"),
		"/empty.txt":  Str(""),
	}

	cases := []struct {
		expr string
		want Value
	}{
		// Literals
		{"42", Int(42)},
		{"4.5", Float(4.5)},
		{"'single'", Str("single")},
		{`"dou\"ble"`, Str(`dou"ble`)},
		{"True", Bool(true)},
		{"false", Bool(false)},
		{"[1, 'a', [2]]", List{Int(1), Str("a"), List{Int(2)}}},
		{"[]", List{}},

		// Arithmetic
		{"1 + 2 * 3", Int(7)},
		{"(1 + 2) * 3", Int(9)},
		{"7 / 2", Float(3.5)},
		{"6 / 2", Float(3)},
		{"7 // 2", Int(3)},
		{"-7 // 2", Int(-4)},
		{"-7 % 3", Int(2)},
		{"7.5 // 2", Float(3)},
		{"2 ^ 10", Int(1024)},
		{"2 ** 3 ** 2", Int(512)},
		{"2 ^ -1", Float(0.5)},
		{"-2 ^ 2", Int(-4)},
		{"5 xor 3", Int(6)},
		{"True xor True", Bool(false)},
		{"1 + 2.5", Float(3.5)},
		{"'ab' + 'cd'", Str("abcd")},
		{"'ab' * 3", Str("ababab")},
		{"[1] + [2]", List{Int(1), Int(2)}},
		{"--3", Int(3)},

		// Integer overflow falls back to float
		{"3 ^ 39", Int(4052555153018976267)},
		{"3 ^ 40", Float(math.Pow(3, 40))},
		{"2 ^ 64", Float(math.Pow(2, 64))},
		{"1 ^ 100000000000000", Int(1)},
		{"(-1) ^ 100000000000001", Int(-1)},
		{"9223372036854775807 + 1", Float(math.MaxInt64)},
		{"-9223372036854775807 - 2", Float(math.MinInt64)},
		{"4294967296 * 4294967296", Float(math.Pow(2, 64))},
		{"-(-9223372036854775807 - 1)", Float(math.MaxInt64)},
		{"+3", Int(3)},

		// Logic
		{"not 0", Bool(true)},
		{"!True", Bool(false)},
		{"1 and 0", Int(0)},
		{"0 or 'x'", Str("x")},
		{"True && False", Bool(false)},
		{"False || True", Bool(true)},
		{"not 1 == 2", Bool(true)},

		// Comparison chains
		{"1 < 2 < 3", Bool(true)},
		{"1 < 2 < 0", Bool(false)},
		{"3 > 2 >= 2 != 5", Bool(true)},
		{"'abc' < 'abd'", Bool(true)},
		{"1 == 1.0", Bool(true)},
		{"'1' == 1", Bool(false)},
		{"[1, 2] == [1, 2]", Bool(true)},

		// Indexing and slicing
		{"'hello'[1]", Str("e")},
		{"'hello'[-1]", Str("o")},
		{"'hello'[1:3]", Str("el")},
		{"'hello'[2:]", Str("llo")},
		{"'hello'[:-2]", Str("hel")},
		{"'hello'[-100:100]", Str("hello")},
		{"'hello'[4:1]", Str("")},
		{"[1, 2, 3][1:]", List{Int(2), Int(3)}},
		{"'héllo'[1]", Str("é")},

		// Allowlisted calls
		{"len('hello')", Int(5)},
		{"len([1, 2])", Int(2)},
		{"type(1)", Str("int")},
		{"type('x') == 'str'", Bool(true)},
		{"int('12') + 1", Int(13)},
		{"int(3.9)", Int(3)},
		{"float('1.5')", Float(1.5)},
		{"str(12) + '3'", Str("123")},
		{"abs(-4)", Int(4)},
		{"abs(-4.5)", Float(4.5)},

		// Filesystem introspection
		{"self.resolve('/home')", List{Str("a.txt"), Str("b")}},
		{"self.resolve('/home/a.txt')", Str("hello")},
		{"self.resolve('/missing')", Bool(false)},
		{"type(self.resolve('/home')) == 'list'", Bool(true)},
		{"len(self.resolve('/empty.txt')) > 0", Bool(false)},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Eval(tc.expr, self)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEval_shortCircuit(t *testing.T) {
	cases := []string{
		// The right side would fail if it were evaluated.
		"1 < 2 < 0 < nope",
		"0 and nope",
		"1 or nope",
		"False && undefined()",
		"True || undefined()",
	}

	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			_, err := Eval(tc, nil)
			assert.NoError(t, err)
		})
	}
}

func TestEval_errors(t *testing.T) {
	cases := []struct {
		expr    string
		wantErr error
	}{
		{"__import__('os')", ErrUnknownFunction},
		{"open('/etc/passwd')", ErrUnknownFunction},
		{"self.resolve('/')", ErrUnknownFunction}, // no machine attached
		{"os.system('ls')", ErrUnknownFunction},
		{"x", ErrUnsupportedExpression},
		{"'a'.upper", ErrUnsupportedExpression},
		{"len(x=1)", ErrUnsupportedExpression},
		{"len('a')('b')", ErrUnsupportedExpression},
		{"1 +", ErrEvaluation},
		{"(1", ErrEvaluation},
		{"1 = 2", ErrEvaluation},
		{"'unterminated", ErrEvaluation},
		{"1 / 0", ErrEvaluation},
		{"1 // 0", ErrEvaluation},
		{"'a' - 1", ErrEvaluation},
		{"'a' < 1", ErrEvaluation},
		{"'abc'[5]", ErrEvaluation},
		{"len(1)", ErrEvaluation},
		{"len()", ErrEvaluation},
		{"int('nope')", ErrEvaluation},
		{"1 $ 2", ErrEvaluation},
		{"'a' * 9223372036854775807", ErrEvaluation},
		{"[1, 2] * 9223372036854775807", ErrEvaluation},
		{"'ab' * 1048577", ErrEvaluation},
		{"int(1e300)", ErrEvaluation},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Eval(tc.expr, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
			assert.True(t, errors.Is(err, ErrEvaluation))
		})
	}
}

type panickingSelf struct{}

func (panickingSelf) Resolve(path string) (Value, error) {
	panic("resolver exploded")
}

func TestEval_recoversFaults(t *testing.T) {
	var err error
	require.NotPanics(t, func() {
		_, err = Eval("self.resolve('/')", panickingSelf{})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvaluation))
	assert.Contains(t, err.Error(), "resolver exploded")
}

func TestValue_Literal(t *testing.T) {
	values := []Value{
		Int(-3),
		Float(2),
		Float(0.25),
		Str("multi\nline \"quoted\""),
		Bool(true),
		List{Int(1), Str("two"), List{Bool(false)}},
		Float(math.Inf(1)),
		Float(math.Inf(-1)),
		List{Float(math.Inf(1))},
	}

	for _, v := range values {
		t.Run(v.Literal(), func(t *testing.T) {
			got, err := Eval(v.Literal(), nil)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestValue_LiteralNaN(t *testing.T) {
	v := Float(math.NaN())
	assert.Equal(t, `float("nan")`, v.Literal())
	assert.Equal(t, "nan", v.String())

	got, err := Eval(v.Literal(), nil)
	require.NoError(t, err)
	f, ok := got.(Float)
	require.True(t, ok)
	assert.True(t, math.IsNaN(float64(f)))
}

func TestList_String(t *testing.T) {
	l := List{Str("a"), Float(math.Inf(-1)), List{Float(1)}}
	assert.Equal(t, `["a", -inf, [1.0]]`, l.String())
	assert.Equal(t, `["a", float("-inf"), [1.0]]`, l.Literal())
}

func ExampleEval() {
	v, _ := Eval("len('door' + 'OS') * 2 ^ 2", nil)
	fmt.Println(v)
	v, _ = Eval("10 / 4", nil)
	fmt.Println(v)
	v, _ = Eval("1 < 2 < 3", nil)
	fmt.Println(v)
	// Output:
	// 24
	// 2.5
	// True
}
