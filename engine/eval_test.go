package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/tabwell/tq/table"
)

func evalOne(t *testing.T, expr string, tbl *table.Table) table.Value {
	t.Helper()
	parsed, err := parseExpression(expr)
	if err != nil {
		t.Fatalf("parse error for %q: %v", expr, err)
	}
	vals, err := EvalFormula(parsed, tbl)
	if err != nil {
		t.Fatalf("eval error for %q: %v", expr, err)
	}
	if len(vals) != 1 {
		t.Fatalf("expected 1 value, got %d", len(vals))
	}
	return vals[0]
}

func oneRow(cols []string, vals []table.Value) *table.Table {
	tbl := table.NewTable(cols)
	tbl.AddRow(vals)
	return tbl
}

func TestEvalArithmetic(t *testing.T) {
	tbl := oneRow([]string{"a", "b"}, []table.Value{table.IntVal(10), table.IntVal(4)})

	tests := []struct {
		expr string
		want table.Value
	}{
		{"a + b", table.IntVal(14)},
		{"a - b", table.IntVal(6)},
		{"a * b", table.IntVal(40)},
		{"a / b", table.FloatVal(2.5)},
		{"10 / 5", table.IntVal(2)},
		{"a + 0.5", table.FloatVal(10.5)},
		{"-a", table.IntVal(-10)},
		{"(a + b) * 2", table.IntVal(28)},
	}
	for _, tt := range tests {
		got := evalOne(t, tt.expr, tbl)
		if !got.Equal(tt.want) {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvalStringConcat(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.StrVal("foo")})
	got := evalOne(t, "a + 'bar'", tbl)
	if got.Str != "foobar" {
		t.Errorf("expected foobar, got %v", got)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.IntVal(1)})
	if got := evalOne(t, "a / 0", tbl); !got.IsNull() {
		t.Errorf("division by zero should be null, got %v", got)
	}
}

func TestEvalNullPropagation(t *testing.T) {
	tbl := oneRow([]string{"a", "b"}, []table.Value{table.Null(), table.IntVal(4)})
	if got := evalOne(t, "a + b", tbl); !got.IsNull() {
		t.Errorf("null + int should be null, got %v", got)
	}
	if got := evalOne(t, "-a", tbl); !got.IsNull() {
		t.Errorf("-null should be null, got %v", got)
	}
}

func TestEvalComparison(t *testing.T) {
	tbl := oneRow([]string{"a", "s"}, []table.Value{table.IntVal(5), table.StrVal("mango")})

	tests := []struct {
		expr string
		want bool
	}{
		{"a == 5", true},
		{"a != 5", false},
		{"a > 3", true},
		{"a >= 5", true},
		{"a < 5", false},
		{"a <= 4", false},
		{"s == 'mango'", true},
		{"s < 'zebra'", true},
		{"1 < a < 10", true},
		{"1 < a < 3", false},
	}
	for _, tt := range tests {
		got := evalOne(t, tt.expr, tbl)
		if got.Type != table.TypeBool || got.Bool != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestEvalNullComparison(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.Null()})

	if got := evalOne(t, "a == 5", tbl); got.Bool {
		t.Error("null == 5 should be false")
	}
	if got := evalOne(t, "a != 5", tbl); !got.Bool {
		t.Error("null != 5 should be true")
	}
	if got := evalOne(t, "a > 5", tbl); !got.IsNull() {
		t.Errorf("null > 5 should be null, got %v", got)
	}
}

func TestEvalDateComparison(t *testing.T) {
	d := time.Date(2014, 1, 13, 0, 0, 0, 0, time.UTC)
	tbl := oneRow([]string{"d"}, []table.Value{table.DateVal(d)})

	if got := evalOne(t, "d > '2014-01-01'", tbl); !got.Bool {
		t.Error("2014-01-13 should be after 2014-01-01")
	}
	if got := evalOne(t, "d == '2014-01-13'", tbl); !got.Bool {
		t.Error("date should equal its own string form")
	}
}

func TestEvalLogical(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.IntVal(5)})

	if got := evalOne(t, "a > 1 and a < 10", tbl); !got.Bool {
		t.Error("expected true")
	}
	if got := evalOne(t, "a > 10 or a == 5", tbl); !got.Bool {
		t.Error("expected true")
	}
	if got := evalOne(t, "a > 10 & a == 5", tbl); got.Bool {
		t.Error("expected false")
	}
}

func TestEvalTypeMismatch(t *testing.T) {
	tbl := oneRow([]string{"a", "s"}, []table.Value{table.IntVal(5), table.StrVal("x")})

	parsed, err := parseExpression("a + s")
	if err != nil {
		t.Fatal(err)
	}
	_, err = EvalFormula(parsed, tbl)
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Errorf("expected TypeMismatchError, got %v", err)
	}
}

func TestEvalColumnNotFound(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.IntVal(5)})

	parsed, err := parseExpression("missing + 1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = EvalFormula(parsed, tbl)
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) {
		t.Errorf("expected ColumnNotFoundError, got %v", err)
	}
	if cnf != nil && cnf.Column != "missing" {
		t.Errorf("expected column name in error, got %q", cnf.Column)
	}
}

func TestEvalPredicateNullIsFalse(t *testing.T) {
	tbl := table.NewTable([]string{"a"})
	tbl.AddRow([]table.Value{table.IntVal(5)})
	tbl.AddRow([]table.Value{table.Null()})

	parsed, err := parseExpression("a > 1")
	if err != nil {
		t.Fatal(err)
	}
	mask, err := EvalPredicate(parsed, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if !mask[0] || mask[1] {
		t.Errorf("expected [true false], got %v", mask)
	}
}

func TestEvalPredicateRejectsNonBoolean(t *testing.T) {
	tbl := oneRow([]string{"a"}, []table.Value{table.IntVal(5)})

	parsed, err := parseExpression("a + 1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = EvalPredicate(parsed, tbl)
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Errorf("expected TypeMismatchError for non-boolean predicate, got %v", err)
	}
}

func TestParseExpressionSyntaxError(t *testing.T) {
	_, err := parseExpression("a >")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Errorf("expected SyntaxError, got %v", err)
	}
}
