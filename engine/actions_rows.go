package engine

import (
	"fmt"
	"strings"

	"github.com/tabwell/tq/ast"
	"github.com/tabwell/tq/table"
)

// --- only_keep_rows_where ---

type filterRowsAction struct {
	predicates []predicate
}

type predicate struct {
	src  string
	expr ast.Expr
}

func newFilterRowsAction(payload any) (Action, error) {
	sources, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("expected at least one predicate")
	}
	predicates := make([]predicate, len(sources))
	for i, src := range sources {
		expr, err := parseExpression(src)
		if err != nil {
			return nil, err
		}
		predicates[i] = predicate{src: src, expr: expr}
	}
	return &filterRowsAction{predicates: predicates}, nil
}

func (a *filterRowsAction) Name() string { return "only_keep_rows_where" }

// Apply narrows the row set predicate by predicate, in declaration
// order. Row identities survive filtering.
func (a *filterRowsAction) Apply(t *table.Table) (*table.Table, error) {
	current := t
	for _, p := range a.predicates {
		mask, err := EvalPredicate(p.expr, current)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p.src, err)
		}
		next := table.NewTable(current.Columns)
		for i, row := range current.Rows {
			if mask[i] {
				next.Append(row)
			}
		}
		current = next
	}
	return current, nil
}

// --- only_edit_rows_where ---

type scopedEditAction struct {
	entries []scopedEntry
}

type scopedEntry struct {
	src    string
	pred   ast.Expr
	nested *ActionList
}

func newScopedEditAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("expected at least one entry")
	}
	entries := make([]scopedEntry, len(maps))
	for i, m := range maps {
		src, err := stringField(m, "rows_match")
		if err != nil {
			return nil, err
		}
		expr, err := parseExpression(src)
		if err != nil {
			return nil, err
		}
		steps, err := StepsFromPayload(m["list_of_actions"])
		if err != nil {
			return nil, err
		}
		nested, err := NewActionList(steps)
		if err != nil {
			return nil, err
		}
		entries[i] = scopedEntry{src: src, pred: expr, nested: nested}
	}
	return &scopedEditAction{entries: entries}, nil
}

func (a *scopedEditAction) Name() string { return "only_edit_rows_where" }

// Apply runs each entry's nested pipeline against the rows its
// predicate matches, then scatters the result back by row identity.
// Non-matching rows keep their values bit for bit; a column that only
// exists inside the nested pipeline shows up as null for them. Nested
// rows whose identity is no longer present in the parent (the nested
// pipeline grouped or deduplicated) are dropped.
func (a *scopedEditAction) Apply(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for _, entry := range a.entries {
		mask, err := EvalPredicate(entry.pred, out)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", entry.src, err)
		}

		subset := table.NewTable(append([]string(nil), out.Columns...))
		for i, row := range out.Rows {
			if mask[i] {
				vals := make([]table.Value, len(row.Values))
				copy(vals, row.Values)
				subset.Append(table.Row{ID: row.ID, Values: vals})
			}
		}

		transformed, err := entry.nested.Apply(subset)
		if err != nil {
			return nil, err
		}

		idToRow := make(map[int]int, len(out.Rows))
		for i, row := range out.Rows {
			idToRow[row.ID] = i
		}

		for j, col := range transformed.Columns {
			idx := out.ColIndex(col)
			if idx < 0 {
				out.Columns = append(out.Columns, col)
				idx = len(out.Columns) - 1
				for i := range out.Rows {
					out.Rows[i].Values = append(out.Rows[i].Values, table.Null())
				}
			}
			for _, trow := range transformed.Rows {
				if ri, ok := idToRow[trow.ID]; ok {
					out.Rows[ri].Values[idx] = trow.Values[j]
				}
			}
		}
	}
	return out, nil
}

// --- remove_duplicates ---

type removeDuplicatesAction struct {
	columns []string // empty: key on all columns
}

func newRemoveDuplicatesAction(payload any) (Action, error) {
	cols, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	return &removeDuplicatesAction{columns: cols}, nil
}

func (a *removeDuplicatesAction) Name() string { return "remove_duplicates" }

func (a *removeDuplicatesAction) Apply(t *table.Table) (*table.Table, error) {
	var indices []int
	if len(a.columns) > 0 {
		indices = make([]int, len(a.columns))
		for i, c := range a.columns {
			idx := t.ColIndex(c)
			if idx < 0 {
				return nil, &ColumnNotFoundError{Column: c}
			}
			indices[i] = idx
		}
	} else {
		indices = make([]int, len(t.Columns))
		for i := range t.Columns {
			indices[i] = i
		}
	}

	seen := make(map[string]bool)
	result := table.NewTable(t.Columns)
	for _, row := range t.Rows {
		key := rowKey(row, indices)
		if !seen[key] {
			seen[key] = true
			result.Append(row)
		}
	}
	return result, nil
}

// rowKey builds a canonical key over the given cell indices. The type
// tag keeps int 1 and string "1" distinct.
func rowKey(row table.Row, indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		v := row.Values[idx]
		parts[i] = fmt.Sprintf("%d:%s", v.Type, v.AsString())
	}
	return strings.Join(parts, "\x00")
}

// --- sum_up_by ---

type groupSumAction struct {
	keys []string
}

func newGroupSumAction(payload any) (Action, error) {
	keys, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("expected at least one key column")
	}
	return &groupSumAction{keys: keys}, nil
}

func (a *groupSumAction) Name() string { return "sum_up_by" }

// Apply partitions rows by the key tuple and sums every remaining
// numeric column per group. Output order is first-seen key order.
// Non-numeric non-key columns are dropped.
func (a *groupSumAction) Apply(t *table.Table) (*table.Table, error) {
	keyIndices := make([]int, len(a.keys))
	keySet := make(map[int]bool)
	for i, c := range a.keys {
		idx := t.ColIndex(c)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: c}
		}
		keyIndices[i] = idx
		keySet[idx] = true
	}

	var sumCols []string
	var sumIndices []int
	for i, col := range t.Columns {
		if !keySet[i] && numericColumn(t, i) {
			sumCols = append(sumCols, col)
			sumIndices = append(sumIndices, i)
		}
	}

	type groupSum struct {
		intSum  int64
		sum     float64
		allInt  bool
		present bool
	}
	type groupEntry struct {
		key  []table.Value
		sums []groupSum
	}
	var groups []groupEntry
	keyMap := make(map[string]int)

	for _, row := range t.Rows {
		keyStr := rowKey(row, keyIndices)
		gi, exists := keyMap[keyStr]
		if !exists {
			keyVals := make([]table.Value, len(keyIndices))
			for i, idx := range keyIndices {
				keyVals[i] = row.Values[idx]
			}
			sums := make([]groupSum, len(sumIndices))
			for i := range sums {
				sums[i].allInt = true
			}
			gi = len(groups)
			groups = append(groups, groupEntry{key: keyVals, sums: sums})
			keyMap[keyStr] = gi
		}

		for i, idx := range sumIndices {
			v := row.Values[idx]
			if v.IsNull() {
				continue
			}
			f, _ := v.AsFloat()
			s := &groups[gi].sums[i]
			s.sum += f
			s.present = true
			if v.Type == table.TypeInt {
				s.intSum += v.Int
			} else {
				s.allInt = false
			}
		}
	}

	resultCols := make([]string, 0, len(a.keys)+len(sumCols))
	resultCols = append(resultCols, a.keys...)
	resultCols = append(resultCols, sumCols...)

	result := table.NewTable(resultCols)
	for _, g := range groups {
		vals := make([]table.Value, 0, len(resultCols))
		vals = append(vals, g.key...)
		for _, s := range g.sums {
			switch {
			case !s.present:
				vals = append(vals, table.Null())
			case s.allInt:
				vals = append(vals, table.IntVal(s.intSum))
			default:
				vals = append(vals, table.FloatVal(s.sum))
			}
		}
		result.AddRow(vals)
	}
	return result, nil
}

// numericColumn reports whether every non-null cell in the column is
// numeric and at least one such cell exists.
func numericColumn(t *table.Table, idx int) bool {
	found := false
	for _, row := range t.Rows {
		v := row.Values[idx]
		if v.IsNull() {
			continue
		}
		if !v.IsNumeric() {
			return false
		}
		found = true
	}
	return found
}
