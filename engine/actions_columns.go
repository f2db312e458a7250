package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tabwell/tq/table"
)

// columnPair is one parsed "new = old" instruction.
type columnPair struct {
	New string
	Old string
}

func parseColumnPairs(payload any) ([]columnPair, error) {
	instructions, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("expected at least one \"new = old\" instruction")
	}
	pairs := make([]columnPair, len(instructions))
	for i, instr := range instructions {
		newCol, oldCol, ok := strings.Cut(instr, "=")
		if !ok {
			return nil, fmt.Errorf("instruction %q: expected \"new = old\"", instr)
		}
		pairs[i] = columnPair{
			New: strings.TrimSpace(newCol),
			Old: strings.TrimSpace(oldCol),
		}
		if pairs[i].New == "" || pairs[i].Old == "" {
			return nil, fmt.Errorf("instruction %q: empty column name", instr)
		}
	}
	return pairs, nil
}

// setColumn returns vals written into column name, adding the column
// when absent. The input table is not modified.
func setColumn(t *table.Table, name string, vals []table.Value) *table.Table {
	out := t.Clone()
	idx := out.ColIndex(name)
	if idx < 0 {
		out.Columns = append(out.Columns, name)
		idx = len(out.Columns) - 1
		for i := range out.Rows {
			out.Rows[i].Values = append(out.Rows[i].Values, table.Null())
		}
	}
	for i := range out.Rows {
		out.Rows[i].Values[idx] = vals[i]
	}
	return out
}

// --- rename_column ---

type renameColumnAction struct {
	pairs []columnPair
}

func newRenameColumnAction(payload any) (Action, error) {
	pairs, err := parseColumnPairs(payload)
	if err != nil {
		return nil, err
	}
	return &renameColumnAction{pairs: pairs}, nil
}

func (a *renameColumnAction) Name() string { return "rename_column" }

func (a *renameColumnAction) Apply(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for _, pair := range a.pairs {
		idx := out.ColIndex(pair.Old)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: pair.Old}
		}
		out.Columns[idx] = pair.New
	}
	return out, nil
}

// --- copy_column ---

type copyColumnAction struct {
	pairs []columnPair
}

func newCopyColumnAction(payload any) (Action, error) {
	pairs, err := parseColumnPairs(payload)
	if err != nil {
		return nil, err
	}
	return &copyColumnAction{pairs: pairs}, nil
}

func (a *copyColumnAction) Name() string { return "copy_column" }

func (a *copyColumnAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, pair := range a.pairs {
		idx := out.ColIndex(pair.Old)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: pair.Old}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, r := range out.Rows {
			vals[i] = r.Values[idx]
		}
		out = setColumn(out, pair.New, vals)
	}
	return out, nil
}

// --- only_keep_these_columns ---

type keepColumnsAction struct {
	columns []string
}

func newKeepColumnsAction(payload any) (Action, error) {
	cols, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("expected at least one column")
	}
	return &keepColumnsAction{columns: cols}, nil
}

func (a *keepColumnsAction) Name() string { return "only_keep_these_columns" }

func (a *keepColumnsAction) Apply(t *table.Table) (*table.Table, error) {
	indices := make([]int, len(a.columns))
	for i, c := range a.columns {
		idx := t.ColIndex(c)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: c}
		}
		indices[i] = idx
	}

	result := table.NewTable(append([]string(nil), a.columns...))
	for _, row := range t.Rows {
		vals := make([]table.Value, len(indices))
		for i, idx := range indices {
			vals[i] = row.Values[idx]
		}
		result.Append(table.Row{ID: row.ID, Values: vals})
	}
	return result, nil
}

// --- remove_columns ---

type removeColumnsAction struct {
	columns []string
}

func newRemoveColumnsAction(payload any) (Action, error) {
	cols, err := stringList(payload)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("expected at least one column")
	}
	return &removeColumnsAction{columns: cols}, nil
}

func (a *removeColumnsAction) Name() string { return "remove_columns" }

func (a *removeColumnsAction) Apply(t *table.Table) (*table.Table, error) {
	removeSet := make(map[string]bool)
	for _, c := range a.columns {
		if t.ColIndex(c) < 0 {
			return nil, &ColumnNotFoundError{Column: c}
		}
		removeSet[c] = true
	}

	var keepCols []string
	var keepIndices []int
	for i, c := range t.Columns {
		if !removeSet[c] {
			keepCols = append(keepCols, c)
			keepIndices = append(keepIndices, i)
		}
	}

	result := table.NewTable(keepCols)
	for _, row := range t.Rows {
		vals := make([]table.Value, len(keepIndices))
		for i, idx := range keepIndices {
			vals[i] = row.Values[idx]
		}
		result.Append(table.Row{ID: row.ID, Values: vals})
	}
	return result, nil
}

// --- make_column_names_lowercase ---

type lowercaseNamesAction struct{}

func newLowercaseNamesAction(payload any) (Action, error) {
	if payload != nil {
		return nil, fmt.Errorf("takes no instructions")
	}
	return &lowercaseNamesAction{}, nil
}

func (a *lowercaseNamesAction) Name() string { return "make_column_names_lowercase" }

func (a *lowercaseNamesAction) Apply(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = strings.ToLower(c)
	}
	return out, nil
}

// --- make_column_names_alphanumeric ---

var (
	nonWordChars = regexp.MustCompile(`[^\w ]`)
	spaceRuns    = regexp.MustCompile(` +`)
)

type alphanumericNamesAction struct{}

func newAlphanumericNamesAction(payload any) (Action, error) {
	if payload != nil {
		return nil, fmt.Errorf("takes no instructions")
	}
	return &alphanumericNamesAction{}, nil
}

func (a *alphanumericNamesAction) Name() string { return "make_column_names_alphanumeric" }

func (a *alphanumericNamesAction) Apply(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for i, c := range out.Columns {
		name := nonWordChars.ReplaceAllString(c, "")
		name = strings.TrimSpace(name)
		name = spaceRuns.ReplaceAllString(name, "_")
		out.Columns[i] = name
	}
	return out, nil
}
