package parser

import (
	"testing"

	"github.com/tabwell/tq/ast"
)

func mustParse(t *testing.T, input string) ast.Expr {
	t.Helper()
	expr, err := Parse(input)
	if err != nil {
		t.Fatalf("parse error for %q: %v", input, err)
	}
	return expr
}

func binary(t *testing.T, e ast.Expr, op string) *ast.BinaryExpr {
	t.Helper()
	b, ok := e.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr, got %T", e)
	}
	if b.Op != op {
		t.Fatalf("expected op %q, got %q", op, b.Op)
	}
	return b
}

func TestParseLiterals(t *testing.T) {
	lit, ok := mustParse(t, "42").(*ast.LiteralExpr)
	if !ok || lit.Kind != "int" || lit.Int != 42 {
		t.Errorf("unexpected result for 42: %+v", lit)
	}

	lit, ok = mustParse(t, "2.5").(*ast.LiteralExpr)
	if !ok || lit.Kind != "float" || lit.Float != 2.5 {
		t.Errorf("unexpected result for 2.5: %+v", lit)
	}

	lit, ok = mustParse(t, "'hello'").(*ast.LiteralExpr)
	if !ok || lit.Kind != "string" || lit.Str != "hello" {
		t.Errorf("unexpected result for 'hello': %+v", lit)
	}
}

func TestParseColumn(t *testing.T) {
	col, ok := mustParse(t, "amount").(*ast.ColumnExpr)
	if !ok || col.Name != "amount" {
		t.Errorf("unexpected result: %+v", col)
	}

	col, ok = mustParse(t, "`Client Name`").(*ast.ColumnExpr)
	if !ok || col.Name != "Client Name" {
		t.Errorf("unexpected result: %+v", col)
	}
}

func TestParsePrecedence(t *testing.T) {
	// a + b * c parses as a + (b * c)
	add := binary(t, mustParse(t, "a + b * c"), "+")
	binary(t, add.Right, "*")

	// a * b + c parses as (a * b) + c
	add = binary(t, mustParse(t, "a * b + c"), "+")
	binary(t, add.Left, "*")

	// comparison binds looser than arithmetic
	cmp := binary(t, mustParse(t, "a + 1 > b"), ">")
	binary(t, cmp.Left, "+")

	// and binds looser than comparison
	and := binary(t, mustParse(t, "a > 1 and b < 2"), "and")
	binary(t, and.Left, ">")
	binary(t, and.Right, "<")

	// or binds loosest
	or := binary(t, mustParse(t, "a and b or c"), "or")
	binary(t, or.Left, "and")
}

func TestParseParens(t *testing.T) {
	mul := binary(t, mustParse(t, "(a + b) * c"), "*")
	binary(t, mul.Left, "+")
}

func TestParseUnaryMinus(t *testing.T) {
	u, ok := mustParse(t, "-a").(*ast.UnaryExpr)
	if !ok || u.Op != "-" {
		t.Fatalf("expected unary minus, got %+v", u)
	}
	if _, ok := u.Operand.(*ast.ColumnExpr); !ok {
		t.Errorf("expected column operand, got %T", u.Operand)
	}
}

func TestParseChainedComparison(t *testing.T) {
	// 1 < b < 3 desugars to (1 < b) and (b < 3)
	and := binary(t, mustParse(t, "1 < b < 3"), "and")
	left := binary(t, and.Left, "<")
	right := binary(t, and.Right, "<")

	if lit, ok := left.Left.(*ast.LiteralExpr); !ok || lit.Int != 1 {
		t.Errorf("expected literal 1 on the left: %+v", left.Left)
	}
	if col, ok := left.Right.(*ast.ColumnExpr); !ok || col.Name != "b" {
		t.Errorf("expected column b: %+v", left.Right)
	}
	if col, ok := right.Left.(*ast.ColumnExpr); !ok || col.Name != "b" {
		t.Errorf("expected shared operand b: %+v", right.Left)
	}
	if lit, ok := right.Right.(*ast.LiteralExpr); !ok || lit.Int != 3 {
		t.Errorf("expected literal 3 on the right: %+v", right.Right)
	}
}

func TestParseLongChain(t *testing.T) {
	// a <= b < c == d builds ((a <= b) and (b < c)) and (c == d)
	outer := binary(t, mustParse(t, "a <= b < c == d"), "and")
	inner := binary(t, outer.Left, "and")
	binary(t, inner.Left, "<=")
	binary(t, inner.Right, "<")
	binary(t, outer.Right, "==")
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"a +",
		"(a + b",
		"a b",
		"* 3",
		"a >",
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected parse error for %q", input)
		}
	}
}

func TestBareColumn(t *testing.T) {
	if !ast.BareColumn(mustParse(t, "foo")) {
		t.Error("single identifier should be a bare column")
	}
	if ast.BareColumn(mustParse(t, "666")) {
		t.Error("literal should not be a bare column")
	}
	if ast.BareColumn(mustParse(t, "a + b")) {
		t.Error("compound expression should not be a bare column")
	}
}
