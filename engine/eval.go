package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tabwell/tq/ast"
	"github.com/tabwell/tq/parser"
	"github.com/tabwell/tq/table"
)

// EvalContext provides column lookup for expression evaluation.
type EvalContext struct {
	Table *table.Table
	Row   *table.Row
}

// EvalFormula evaluates a value-producing expression for every row,
// returning one value per row in input order.
func EvalFormula(expr ast.Expr, t *table.Table) ([]table.Value, error) {
	out := make([]table.Value, len(t.Rows))
	for i := range t.Rows {
		ctx := &EvalContext{Table: t, Row: &t.Rows[i]}
		v, err := Eval(expr, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EvalPredicate evaluates a boolean expression for every row. A null
// result (from an ordered comparison against null) counts as false.
func EvalPredicate(expr ast.Expr, t *table.Table) ([]bool, error) {
	out := make([]bool, len(t.Rows))
	for i := range t.Rows {
		ctx := &EvalContext{Table: t, Row: &t.Rows[i]}
		v, err := Eval(expr, ctx)
		if err != nil {
			return nil, err
		}
		b, ok := v.AsBool()
		if !ok {
			return nil, &TypeMismatchError{Op: "predicate", Left: v.AsString()}
		}
		out[i] = b
	}
	return out, nil
}

// parseExpression wraps parser errors in the engine's syntax error type.
func parseExpression(src string) (ast.Expr, error) {
	expr, err := parser.Parse(src)
	if err != nil {
		return nil, &SyntaxError{Expr: src, Err: err}
	}
	return expr, nil
}

// Eval evaluates an expression against a row context.
func Eval(expr ast.Expr, ctx *EvalContext) (table.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return evalLiteral(e), nil
	case *ast.ColumnExpr:
		return evalColumn(e, ctx)
	case *ast.BinaryExpr:
		return evalBinary(e, ctx)
	case *ast.UnaryExpr:
		return evalUnary(e, ctx)
	default:
		return table.Null(), fmt.Errorf("unknown expression type %T", expr)
	}
}

func evalLiteral(e *ast.LiteralExpr) table.Value {
	switch e.Kind {
	case "int":
		return table.IntVal(e.Int)
	case "float":
		return table.FloatVal(e.Float)
	case "string":
		return table.StrVal(e.Str)
	default:
		return table.Null()
	}
}

func evalColumn(e *ast.ColumnExpr, ctx *EvalContext) (table.Value, error) {
	idx := ctx.Table.ColIndex(e.Name)
	if idx < 0 {
		return table.Null(), &ColumnNotFoundError{Column: e.Name}
	}
	return ctx.Row.Values[idx], nil
}

func evalBinary(e *ast.BinaryExpr, ctx *EvalContext) (table.Value, error) {
	left, err := Eval(e.Left, ctx)
	if err != nil {
		return table.Null(), err
	}
	right, err := Eval(e.Right, ctx)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "+", "-", "*", "/":
		// Null propagation for arithmetic
		if left.IsNull() || right.IsNull() {
			return table.Null(), nil
		}
		return evalArith(e.Op, left, right)
	case "==", "!=", "<", ">", "<=", ">=":
		return evalComparison(e.Op, left, right)
	case "and":
		return evalLogical(e.Op, left, right)
	case "or":
		return evalLogical(e.Op, left, right)
	default:
		return table.Null(), fmt.Errorf("unknown operator %q", e.Op)
	}
}

func evalArith(op string, left, right table.Value) (table.Value, error) {
	// String concatenation with +
	if op == "+" && left.Type == table.TypeString && right.Type == table.TypeString {
		return table.StrVal(left.Str + right.Str), nil
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return table.Null(), &TypeMismatchError{Op: op, Left: typeName(left), Right: typeName(right)}
	}

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return table.Null(), nil // division by zero returns null
		}
		result = lf / rf
	}

	// If both inputs were ints and the result is whole, stay int
	if left.Type == table.TypeInt && right.Type == table.TypeInt {
		if op != "/" && result == math.Trunc(result) {
			return table.IntVal(int64(result)), nil
		}
		if op == "/" && left.Int%right.Int == 0 {
			return table.IntVal(left.Int / right.Int), nil
		}
	}
	return table.FloatVal(result), nil
}

func evalComparison(op string, left, right table.Value) (table.Value, error) {
	// Null comparisons: null == null is true, null == anything is false;
	// ordered comparison against null is null (false in predicate position).
	if left.IsNull() && right.IsNull() {
		switch op {
		case "==":
			return table.BoolVal(true), nil
		case "!=":
			return table.BoolVal(false), nil
		default:
			return table.Null(), nil
		}
	}
	if left.IsNull() || right.IsNull() {
		switch op {
		case "==":
			return table.BoolVal(false), nil
		case "!=":
			return table.BoolVal(true), nil
		default:
			return table.Null(), nil
		}
	}

	// Date comparison; a string operand is parsed as a date first.
	if left.Type == table.TypeDate || right.Type == table.TypeDate {
		lt, lok := asDate(left)
		rt, rok := asDate(right)
		if !lok || !rok {
			return table.Null(), &TypeMismatchError{Op: op, Left: typeName(left), Right: typeName(right)}
		}
		var cmp int
		if lt.Before(rt) {
			cmp = -1
		} else if lt.After(rt) {
			cmp = 1
		}
		return table.BoolVal(cmpResult(op, cmp)), nil
	}

	// String comparison
	if left.Type == table.TypeString && right.Type == table.TypeString {
		cmp := strings.Compare(left.Str, right.Str)
		return table.BoolVal(cmpResult(op, cmp)), nil
	}

	// Numeric comparison
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if lok && rok {
		var cmp int
		if lf < rf {
			cmp = -1
		} else if lf > rf {
			cmp = 1
		}
		return table.BoolVal(cmpResult(op, cmp)), nil
	}

	return table.Null(), &TypeMismatchError{Op: op, Left: typeName(left), Right: typeName(right)}
}

func cmpResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func evalLogical(op string, left, right table.Value) (table.Value, error) {
	lb, lok := left.AsBool()
	rb, rok := right.AsBool()
	if !lok || !rok {
		return table.Null(), &TypeMismatchError{Op: op, Left: typeName(left), Right: typeName(right)}
	}
	if op == "and" {
		return table.BoolVal(lb && rb), nil
	}
	return table.BoolVal(lb || rb), nil
}

func evalUnary(e *ast.UnaryExpr, ctx *EvalContext) (table.Value, error) {
	operand, err := Eval(e.Operand, ctx)
	if err != nil {
		return table.Null(), err
	}

	if e.Op != "-" {
		return table.Null(), fmt.Errorf("unknown unary operator %q", e.Op)
	}
	switch operand.Type {
	case table.TypeNull:
		return table.Null(), nil
	case table.TypeInt:
		return table.IntVal(-operand.Int), nil
	case table.TypeFloat:
		return table.FloatVal(-operand.Float), nil
	default:
		return table.Null(), &TypeMismatchError{Op: "-", Left: typeName(operand)}
	}
}

func asDate(v table.Value) (t time.Time, ok bool) {
	switch v.Type {
	case table.TypeDate:
		return v.Date, true
	case table.TypeString:
		return table.ParseDate(v.Str)
	default:
		return time.Time{}, false
	}
}

func typeName(v table.Value) string {
	switch v.Type {
	case table.TypeNull:
		return "null"
	case table.TypeInt:
		return fmt.Sprintf("int (%d)", v.Int)
	case table.TypeFloat:
		return fmt.Sprintf("float (%g)", v.Float)
	case table.TypeString:
		return fmt.Sprintf("string (%q)", v.Str)
	case table.TypeDate:
		return fmt.Sprintf("date (%s)", v.AsString())
	case table.TypeBool:
		return fmt.Sprintf("bool (%s)", v.AsString())
	}
	return "?"
}
