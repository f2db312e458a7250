package ast

// Expr represents an expression tree used by formulas and predicates.
type Expr interface {
	exprNode()
}

// LiteralExpr represents a literal value: number or string.
type LiteralExpr struct {
	// Kind: "int", "float", "string"
	Kind  string
	Int   int64
	Float float64
	Str   string
}

func (e *LiteralExpr) exprNode() {}

// ColumnExpr references a column by name.
type ColumnExpr struct {
	Name string
}

func (e *ColumnExpr) exprNode() {}

// BinaryExpr represents a binary operation: a op b.
type BinaryExpr struct {
	Op    string // +, -, *, /, ==, !=, <, >, <=, >=, and, or
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) exprNode() {}

// UnaryExpr represents unary minus.
type UnaryExpr struct {
	Op      string // "-"
	Operand Expr
}

func (e *UnaryExpr) exprNode() {}

// BareColumn reports whether the expression is a single unadorned
// column reference. Formula handling treats an unresolvable bare
// reference as a literal string instead of failing.
func BareColumn(e Expr) bool {
	_, ok := e.(*ColumnExpr)
	return ok
}
