package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Self is the machine side of the single namespaced call, self.resolve.
type Self interface {
	// Resolve returns a List of child names for a directory, the Str
	// content of a file, or Bool(false) if the path doesn't resolve.
	Resolve(path string) (Value, error)
}

// Eval parses and evaluates text. self may be nil, in which case
// self.resolve is an unknown function.
func Eval(text string, self Self) (out Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, evalErrorf("%v", r)
		}
	}()
	n, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return (&evaluator{self: self}).eval(n)
}

// MaxSequenceLen bounds the length of strings and lists built by
// concatenation or repetition.
const MaxSequenceLen = 1 << 20

// Func is a function callable from expressions.
type Func func(args []Value) (Value, error)

// Builtins is the allowlist of callable functions, self.resolve is handled
// separately because it needs the machine.
var Builtins = map[string]Func{
	"len":   builtinLen,
	"type":  builtinType,
	"int":   builtinInt,
	"str":   builtinStr,
	"float": builtinFloat,
	"abs":   builtinAbs,
}

const resolveFunc = "self.resolve"

type evaluator struct {
	self Self
}

func (e *evaluator) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *LiteralExpr:
		return n.Value, nil

	case *ListExpr:
		out := make(List, 0, len(n.Items))
		for _, item := range n.Items {
			v, err := e.eval(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *UnaryExpr:
		v, err := e.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, v)

	case *BinaryExpr:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, left, right)

	case *LogicalExpr:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		if (n.Op == "and") != left.Truthy() {
			return left, nil
		}
		return e.eval(n.Right)

	case *CompareExpr:
		left, err := e.eval(n.Operands[0])
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			right, err := e.eval(n.Operands[i+1])
			if err != nil {
				return nil, err
			}
			ok, err := compare(op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return Bool(false), nil
			}
			left = right
		}
		return Bool(true), nil

	case *IndexExpr:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		idx, err := e.eval(n.Index)
		if err != nil {
			return nil, err
		}
		return index(x, idx)

	case *SliceExpr:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		var low, high Value
		if n.Low != nil {
			if low, err = e.eval(n.Low); err != nil {
				return nil, err
			}
		}
		if n.High != nil {
			if high, err = e.eval(n.High); err != nil {
				return nil, err
			}
		}
		return slice(x, low, high)

	case *CallExpr:
		return e.call(n)

	case *NameExpr:
		return nil, fmt.Errorf("%w: name %q", ErrUnsupportedExpression, n.Name)

	case *AttrExpr:
		return nil, fmt.Errorf("%w: attribute %q", ErrUnsupportedExpression, n.Name)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedExpression, n)
}

func (e *evaluator) call(n *CallExpr) (Value, error) {
	var fn Func
	switch {
	case n.Func == resolveFunc && e.self != nil:
		fn = e.resolve
	default:
		fn = Builtins[n.Func]
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, n.Func)
	}
	if len(n.Keywords) > 0 {
		return nil, fmt.Errorf("%w: keyword argument %q", ErrUnsupportedExpression, n.Keywords[0])
	}

	args := make([]Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := e.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return fn(args)
}

func (e *evaluator) resolve(args []Value) (Value, error) {
	if err := wantArgs(resolveFunc, args, 1); err != nil {
		return nil, err
	}
	path, ok := args[0].(Str)
	if !ok {
		return nil, evalErrorf("%s() argument must be str, not %s", resolveFunc, args[0].Type())
	}
	return e.self.Resolve(string(path))
}

func wantArgs(name string, args []Value, n int) error {
	if len(args) != n {
		return evalErrorf("%s() takes %d argument(s) (%d given)", name, n, len(args))
	}
	return nil
}

func builtinLen(args []Value) (Value, error) {
	if err := wantArgs("len", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case Str:
		return Int(len([]rune(string(v)))), nil
	case List:
		return Int(len(v)), nil
	}
	return nil, evalErrorf("object of type %s has no len()", args[0].Type())
}

func builtinType(args []Value) (Value, error) {
	if err := wantArgs("type", args, 1); err != nil {
		return nil, err
	}
	return Str(args[0].Type()), nil
}

func builtinInt(args []Value) (Value, error) {
	if err := wantArgs("int", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case Int:
		return v, nil
	case Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, evalErrorf("cannot convert %s to int", v)
		}
		if float64(v) >= math.MaxInt64 || float64(v) < math.MinInt64 {
			return nil, evalErrorf("%s is too large to convert to int", v)
		}
		return Int(math.Trunc(float64(v))), nil
	case Bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case Str:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, evalErrorf("invalid literal for int(): %s", v.Literal())
		}
		return Int(i), nil
	}
	return nil, evalErrorf("int() argument can't be %s", args[0].Type())
}

func builtinFloat(args []Value) (Value, error) {
	if err := wantArgs("float", args, 1); err != nil {
		return nil, err
	}
	if f, ok := numeric(args[0]); ok {
		return Float(f), nil
	}
	if s, ok := args[0].(Str); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return nil, evalErrorf("could not convert string to float: %s", s.Literal())
		}
		return Float(f), nil
	}
	return nil, evalErrorf("float() argument can't be %s", args[0].Type())
}

func builtinStr(args []Value) (Value, error) {
	if err := wantArgs("str", args, 1); err != nil {
		return nil, err
	}
	return Str(args[0].String()), nil
}

func builtinAbs(args []Value) (Value, error) {
	if err := wantArgs("abs", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case Int:
		if v < 0 {
			return unary("-", v)
		}
		return v, nil
	case Float:
		return Float(math.Abs(float64(v))), nil
	case Bool:
		return builtinInt(args)
	}
	return nil, evalErrorf("bad operand type for abs(): %s", args[0].Type())
}

func unary(op string, v Value) (Value, error) {
	if op == "not" {
		return Bool(!v.Truthy()), nil
	}
	switch v := v.(type) {
	case Int:
		if op == "-" {
			if v == math.MinInt64 {
				return -Float(v), nil
			}
			return -v, nil
		}
		return v, nil
	case Float:
		if op == "-" {
			return -v, nil
		}
		return v, nil
	case Bool:
		i, _ := builtinInt([]Value{v})
		return unary(op, i)
	}
	return nil, evalErrorf("bad operand type for unary %s: %s", op, v.Type())
}

// integers returns both operands as ints if neither is a float.
func integers(a, b Value) (int64, int64, bool) {
	toInt := func(v Value) (int64, bool) {
		switch v := v.(type) {
		case Int:
			return int64(v), true
		case Bool:
			if v {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	x, ok := toInt(a)
	if !ok {
		return 0, 0, false
	}
	y, ok := toInt(b)
	return x, y, ok
}

func binary(op string, a, b Value) (Value, error) {
	unsupported := evalErrorf("unsupported operand type(s) for %s: %s and %s", op, a.Type(), b.Type())

	switch op {
	case "+":
		switch a := a.(type) {
		case Str:
			if b, ok := b.(Str); ok {
				if err := checkLen(len(a) + len(b)); err != nil {
					return nil, err
				}
				return a + b, nil
			}
			return nil, unsupported
		case List:
			if b, ok := b.(List); ok {
				if err := checkLen(len(a) + len(b)); err != nil {
					return nil, err
				}
				out := append(List{}, a...)
				return append(out, b...), nil
			}
			return nil, unsupported
		}
		return arithmetic(a, b, unsupported, addInt,
			func(x, y float64) Value { return Float(x + y) })

	case "-":
		return arithmetic(a, b, unsupported, subInt,
			func(x, y float64) Value { return Float(x - y) })

	case "*":
		if out, ok, err := repeat(a, b); ok {
			return out, err
		}
		if out, ok, err := repeat(b, a); ok {
			return out, err
		}
		return arithmetic(a, b, unsupported, mulInt,
			func(x, y float64) Value { return Float(x * y) })

	case "/":
		x, y, ok := numericPair(a, b)
		if !ok {
			return nil, unsupported
		}
		if y == 0 {
			return nil, evalErrorf("division by zero")
		}
		return Float(x / y), nil

	case "//", "%":
		x, y, ok := numericPair(a, b)
		if !ok {
			return nil, unsupported
		}
		if y == 0 {
			return nil, evalErrorf("integer division or modulo by zero")
		}
		if xi, yi, ok := integers(a, b); ok && !(xi == math.MinInt64 && yi == -1) {
			q, r := xi/yi, xi%yi
			// Round toward negative infinity.
			if r != 0 && (r < 0) != (yi < 0) {
				q--
				r += yi
			}
			if op == "//" {
				return Int(q), nil
			}
			return Int(r), nil
		}
		q := math.Floor(x / y)
		if op == "//" {
			return Float(q), nil
		}
		return Float(x - q*y), nil

	case "^":
		if xi, yi, ok := integers(a, b); ok && yi >= 0 {
			if out, ok := powInt(xi, yi); ok {
				return Int(out), nil
			}
		}
		x, y, ok := numericPair(a, b)
		if !ok {
			return nil, unsupported
		}
		if x == 0 && y < 0 {
			return nil, evalErrorf("zero cannot be raised to a negative power")
		}
		return Float(math.Pow(x, y)), nil

	case "xor":
		if x, ok := a.(Bool); ok {
			if y, ok := b.(Bool); ok {
				return Bool(x != y), nil
			}
		}
		if x, y, ok := integers(a, b); ok {
			return Int(x ^ y), nil
		}
		return nil, unsupported
	}
	return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedExpression, op)
}

// arithmetic applies ints when both operands are integers and the result
// fits in an int64, otherwise floats.
func arithmetic(a, b Value, unsupported error, ints func(x, y int64) (int64, bool), floats func(x, y float64) Value) (Value, error) {
	if x, y, ok := integers(a, b); ok {
		if out, ok := ints(x, y); ok {
			return Int(out), nil
		}
	}
	if x, y, ok := numericPair(a, b); ok {
		return floats(x, y), nil
	}
	return nil, unsupported
}

func addInt(x, y int64) (int64, bool) {
	out := x + y
	return out, (out > x) == (y > 0)
}

func subInt(x, y int64) (int64, bool) {
	out := x - y
	return out, (out < x) == (y > 0)
}

func mulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	out := x * y
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) || out/y != x {
		return 0, false
	}
	return out, true
}

// powInt raises x to a non-negative power by squaring.
func powInt(x, y int64) (int64, bool) {
	out, ok := int64(1), true
	for ; y > 0; y >>= 1 {
		if y&1 == 1 {
			if out, ok = mulInt(out, x); !ok {
				return 0, false
			}
		}
		if y > 1 {
			if x, ok = mulInt(x, x); !ok {
				return 0, false
			}
		}
	}
	return out, true
}

func checkLen(n int) error {
	if n > MaxSequenceLen {
		return evalErrorf("sequence of length %d exceeds the limit of %d", n, MaxSequenceLen)
	}
	return nil
}

// repeat handles str * int and list * int. ok reports whether the operands
// were a sequence and a count.
func repeat(seq, count Value) (out Value, ok bool, err error) {
	n, isInt := count.(Int)
	if !isInt {
		return nil, false, nil
	}
	if n < 0 {
		n = 0
	}
	switch seq := seq.(type) {
	case Str:
		if len(seq) > 0 && int64(n) > MaxSequenceLen/int64(len(seq)) {
			return nil, true, evalErrorf("repeated sequence exceeds the limit of %d", MaxSequenceLen)
		}
		return Str(strings.Repeat(string(seq), int(n))), true, nil
	case List:
		if len(seq) > 0 && int64(n) > MaxSequenceLen/int64(len(seq)) {
			return nil, true, evalErrorf("repeated sequence exceeds the limit of %d", MaxSequenceLen)
		}
		out := make(List, 0, len(seq)*int(n))
		for i := Int(0); i < n; i++ {
			out = append(out, seq...)
		}
		return out, true, nil
	}
	return nil, false, nil
}

func compare(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return Equal(a, b), nil
	case "!=":
		return !Equal(a, b), nil
	}

	var c int
	if x, y, ok := numericPair(a, b); ok {
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	} else if x, ok := a.(Str); ok {
		y, ok := b.(Str)
		if !ok {
			return false, evalErrorf("'%s' not supported between %s and %s", op, a.Type(), b.Type())
		}
		c = strings.Compare(string(x), string(y))
	} else {
		return false, evalErrorf("'%s' not supported between %s and %s", op, a.Type(), b.Type())
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func sequenceLen(x Value) (int, bool) {
	switch x := x.(type) {
	case Str:
		return len([]rune(string(x))), true
	case List:
		return len(x), true
	}
	return 0, false
}

func index(x, idx Value) (Value, error) {
	n, ok := sequenceLen(x)
	if !ok {
		return nil, evalErrorf("%s object is not subscriptable", x.Type())
	}
	i, _, ok := integers(idx, Int(0))
	if !ok {
		return nil, evalErrorf("indices must be integers, not %s", idx.Type())
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return nil, evalErrorf("index out of range")
	}
	switch x := x.(type) {
	case Str:
		return Str([]rune(string(x))[i]), nil
	case List:
		return x[i], nil
	}
	return nil, evalErrorf("%s object is not subscriptable", x.Type())
}

func slice(x, low, high Value) (Value, error) {
	n, ok := sequenceLen(x)
	if !ok {
		return nil, evalErrorf("%s object is not subscriptable", x.Type())
	}
	bound := func(v Value, def int) (int, error) {
		if v == nil {
			return def, nil
		}
		i, _, ok := integers(v, Int(0))
		if !ok {
			return 0, evalErrorf("slice indices must be integers, not %s", v.Type())
		}
		if i < 0 {
			i += int64(n)
		}
		if i < 0 {
			i = 0
		}
		if i > int64(n) {
			i = int64(n)
		}
		return int(i), nil
	}
	lo, err := bound(low, 0)
	if err != nil {
		return nil, err
	}
	hi, err := bound(high, n)
	if err != nil {
		return nil, err
	}
	if hi < lo {
		hi = lo
	}
	switch x := x.(type) {
	case Str:
		return Str(string([]rune(string(x))[lo:hi])), nil
	case List:
		return append(List{}, x[lo:hi]...), nil
	}
	return nil, evalErrorf("%s object is not subscriptable", x.Type())
}
