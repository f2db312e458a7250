package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tabwell/tq/ast"
	"github.com/tabwell/tq/table"
)

// formulaAssignment is one "target = expr" instruction. expr is nil
// when the right-hand side failed to parse; those take the literal
// fallback path at execution time instead of failing construction.
type formulaAssignment struct {
	target string
	raw    string
	expr   ast.Expr
}

type formulaAction struct {
	assignments []formulaAssignment
}

func newFormulaAction(payload any) (Action, error) {
	instructions, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("expected at least one \"target = expression\" instruction")
	}
	assignments := make([]formulaAssignment, len(instructions))
	for i, instr := range instructions {
		target, raw, ok := strings.Cut(instr, "=")
		if !ok {
			return nil, fmt.Errorf("instruction %q: expected \"target = expression\"", instr)
		}
		a := formulaAssignment{
			target: strings.TrimSpace(target),
			raw:    strings.TrimSpace(raw),
		}
		if a.target == "" {
			return nil, fmt.Errorf("instruction %q: empty target column", instr)
		}
		// A right-hand side that does not parse is not an error here:
		// many formulas are disguised constant or alias assignments.
		a.expr, _ = parseExpression(a.raw)
		assignments[i] = a
	}
	return &formulaAction{assignments: assignments}, nil
}

func (a *formulaAction) Name() string { return "run_these_formula" }

// Apply evaluates each assignment in order; later assignments see the
// columns produced by earlier ones. A right-hand side that is not a
// valid expression falls back, in order: quoted text becomes that
// literal for every row, an existing column name is copied, anything
// else is assigned verbatim as a string.
func (a *formulaAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, assign := range a.assignments {
		vals, err := a.evaluate(assign, out)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", assign.target+" = "+assign.raw, err)
		}
		out = setColumn(out, assign.target, vals)
	}
	return out, nil
}

func (a *formulaAction) evaluate(assign formulaAssignment, t *table.Table) ([]table.Value, error) {
	if assign.expr != nil {
		vals, err := EvalFormula(assign.expr, t)
		if err == nil {
			return vals, nil
		}
		// A bare token that is not a column becomes a literal string.
		var cnf *ColumnNotFoundError
		if errors.As(err, &cnf) && ast.BareColumn(assign.expr) {
			return repeatString(assign.raw, len(t.Rows)), nil
		}
		return nil, err
	}

	raw := assign.raw
	if lit, ok := unquote(raw); ok {
		return repeatString(lit, len(t.Rows)), nil
	}
	if idx := t.ColIndex(raw); idx >= 0 {
		vals := make([]table.Value, len(t.Rows))
		for i, row := range t.Rows {
			vals[i] = row.Values[idx]
		}
		return vals, nil
	}
	return repeatString(raw, len(t.Rows)), nil
}

func repeatString(s string, n int) []table.Value {
	vals := make([]table.Value, n)
	for i := range vals {
		vals[i] = table.StrVal(s)
	}
	return vals
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}
