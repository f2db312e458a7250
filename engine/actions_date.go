package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tabwell/tq/table"
)

// --- change_date_or_time_format ---

// dateTokens substitute calendar tokens into Go reference layouts.
// Longest first, so YY never matches inside YYYY. Tokens are
// case-insensitive; everything else in the format passes through.
var dateTokens = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(?i)YYYY`), "2006"},
	{regexp.MustCompile(`(?i)YY`), "06"},
	{regexp.MustCompile(`(?i)MM`), "01"},
	{regexp.MustCompile(`(?i)DD`), "02"},
}

func dateLayout(format string) string {
	layout := format
	for _, tok := range dateTokens {
		layout = tok.re.ReplaceAllString(layout, tok.layout)
	}
	return layout
}

type dateFormatInstruction struct {
	target string
	result string
	layout string
}

type dateFormatAction struct {
	instructions []dateFormatInstruction
}

func newDateFormatAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]dateFormatInstruction, len(maps))
	for i, m := range maps {
		target, err := stringField(m, "target_column")
		if err != nil {
			return nil, err
		}
		result, err := stringField(m, "result_column")
		if err != nil {
			return nil, err
		}
		format, err := stringField(m, "date_format")
		if err != nil {
			return nil, err
		}
		instructions[i] = dateFormatInstruction{target: target, result: result, layout: dateLayout(format)}
	}
	return &dateFormatAction{instructions: instructions}, nil
}

func (a *dateFormatAction) Name() string { return "change_date_or_time_format" }

// Apply formats each date cell into the result column. Null source
// cells stay null rather than erroring.
func (a *dateFormatAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, instr := range a.instructions {
		idx := out.ColIndex(instr.target)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: instr.target}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, row := range out.Rows {
			v := row.Values[idx]
			switch v.Type {
			case table.TypeNull:
				vals[i] = table.Null()
			case table.TypeDate:
				vals[i] = table.StrVal(v.Date.Format(instr.layout))
			case table.TypeString:
				d, ok := table.ParseDate(v.Str)
				if !ok {
					return nil, &TypeMismatchError{Op: "date format", Left: typeName(v)}
				}
				vals[i] = table.StrVal(d.Format(instr.layout))
			default:
				return nil, &TypeMismatchError{Op: "date format", Left: typeName(v)}
			}
		}
		out = setColumn(out, instr.result, vals)
	}
	return out, nil
}

// --- ensure_column_is_in_this_format ---

type ensureFormatInstruction struct {
	column string
	format string // "date", "number", "text"
}

type ensureFormatAction struct {
	instructions []ensureFormatInstruction
}

func newEnsureFormatAction(payload any) (Action, error) {
	maps, err := mapList(payload)
	if err != nil {
		return nil, err
	}
	instructions := make([]ensureFormatInstruction, len(maps))
	for i, m := range maps {
		column, err := stringField(m, "column")
		if err != nil {
			return nil, err
		}
		format, err := stringField(m, "format")
		if err != nil {
			return nil, err
		}
		switch format {
		case "date", "number", "text":
		default:
			return nil, fmt.Errorf("unknown format %q (want date, number or text)", format)
		}
		instructions[i] = ensureFormatInstruction{column: column, format: format}
	}
	return &ensureFormatAction{instructions: instructions}, nil
}

func (a *ensureFormatAction) Name() string { return "ensure_column_is_in_this_format" }

// Apply coerces columns in place. Cells that cannot be coerced become
// null; a batch never aborts over a stray unparseable cell.
func (a *ensureFormatAction) Apply(t *table.Table) (*table.Table, error) {
	out := t
	for _, instr := range a.instructions {
		idx := out.ColIndex(instr.column)
		if idx < 0 {
			return nil, &ColumnNotFoundError{Column: instr.column}
		}
		vals := make([]table.Value, len(out.Rows))
		for i, row := range out.Rows {
			vals[i] = coerce(row.Values[idx], instr.format)
		}
		out = setColumn(out, instr.column, vals)
	}
	return out, nil
}

func coerce(v table.Value, format string) table.Value {
	if v.IsNull() {
		return table.Null()
	}
	switch format {
	case "date":
		if v.Type == table.TypeDate {
			return v
		}
		if v.Type == table.TypeString {
			if d, ok := table.ParseDate(v.Str); ok {
				return table.DateVal(d)
			}
		}
		return table.Null()
	case "number":
		if v.IsNumeric() {
			return v
		}
		if v.Type == table.TypeString {
			s := strings.ReplaceAll(v.Str, ",", "")
			s = strings.ReplaceAll(s, "$", "")
			s = strings.TrimSpace(s)
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return table.IntVal(n)
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return table.FloatVal(f)
			}
		}
		return table.Null()
	case "text":
		return table.StrVal(v.AsString())
	}
	return v
}
