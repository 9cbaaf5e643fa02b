// Package expr implements the restricted expression language used by
// arithmetic substitution, let and conditionals.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression.
type Value interface {
	// Type is the name reported by type().
	Type() string
	// String is the text spliced into command lines.
	String() string
	// Literal is source text that evaluates back to the same value.
	Literal() string
	// Truthy reports whether the value counts as true in a condition.
	Truthy() bool
}

type (
	Int   int64
	Float float64
	Str   string
	Bool  bool
	List  []Value
)

var (
	_ Value = Int(0)
	_ Value = Float(0)
	_ Value = Str("")
	_ Value = Bool(false)
	_ Value = List(nil)
)

func (Int) Type() string       { return "int" }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (i Int) Literal() string  { return i.String() }
func (i Int) Truthy() bool     { return i != 0 }
func (Float) Type() string     { return "float" }
func (f Float) Truthy() bool   { return f != 0 }
func (Str) Type() string       { return "str" }
func (s Str) String() string   { return string(s) }
func (s Str) Literal() string  { return strconv.Quote(string(s)) }
func (s Str) Truthy() bool     { return s != "" }
func (Bool) Type() string      { return "bool" }
func (b Bool) Literal() string { return b.String() }
func (b Bool) Truthy() bool    { return bool(b) }
func (List) Type() string      { return "list" }
func (l List) Truthy() bool    { return len(l) > 0 }

// String formats floats so they always read back as floats.
func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	case v == math.Trunc(v) && math.Abs(v) < 1e16:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}

// Literal spells non-finite floats as float() calls so they evaluate back
// to the same value.
func (f Float) Literal() string {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprintf("float(%q)", f.String())
	}
	return f.String()
}

func (l List) String() string {
	return l.format(func(v Value) string {
		switch v := v.(type) {
		case Float, List:
			return v.String()
		}
		return v.Literal()
	})
}

func (l List) Literal() string {
	return l.format(Value.Literal)
}

func (l List) format(item func(Value) string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(item(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal compares two values, numbers compare across int, float and bool.
func Equal(a, b Value) bool {
	if x, y, ok := numericPair(a, b); ok {
		return x == y
	}
	switch a := a.(type) {
	case Str:
		b, ok := b.(Str)
		return ok && a == b
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func numeric(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func numericPair(a, b Value) (float64, float64, bool) {
	x, ok := numeric(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := numeric(b)
	return x, y, ok
}
