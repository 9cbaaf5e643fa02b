package expr

// Node is a parsed expression.
type Node interface {
	node()
}

type (
	// LiteralExpr is a constant value.
	LiteralExpr struct {
		Value Value
	}

	// ListExpr is a list display like [1, 2].
	ListExpr struct {
		Items []Node
	}

	// UnaryExpr applies -, + or not.
	UnaryExpr struct {
		Op      string
		Operand Node
	}

	// BinaryExpr is an arithmetic or xor operation.
	BinaryExpr struct {
		Op          string
		Left, Right Node
	}

	// LogicalExpr is a short-circuiting and/or.
	LogicalExpr struct {
		Op          string
		Left, Right Node
	}

	// CompareExpr is a comparison chain: Operands[i] Ops[i] Operands[i+1].
	CompareExpr struct {
		Operands []Node
		Ops      []string
	}

	// IndexExpr is X[Index].
	IndexExpr struct {
		X, Index Node
	}

	// SliceExpr is X[Low:High], either bound may be nil.
	SliceExpr struct {
		X, Low, High Node
	}

	// CallExpr calls a function by its dotted name.
	CallExpr struct {
		Func string
		Args []Node
		// Keywords holds the names of any keyword arguments, which are
		// parsed only so they can be rejected.
		Keywords []string
	}

	// NameExpr is a bare identifier.
	NameExpr struct {
		Name string
	}

	// AttrExpr is X.Name outside of a call.
	AttrExpr struct {
		X    Node
		Name string
	}
)

func (*LiteralExpr) node() {}
func (*ListExpr) node()    {}
func (*UnaryExpr) node()   {}
func (*BinaryExpr) node()  {}
func (*LogicalExpr) node() {}
func (*CompareExpr) node() {}
func (*IndexExpr) node()   {}
func (*SliceExpr) node()   {}
func (*CallExpr) node()    {}
func (*NameExpr) node()    {}
func (*AttrExpr) node()    {}
