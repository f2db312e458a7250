package table

import (
	"fmt"
	"strings"
	"time"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeDate
	TypeBool // produced by comparisons; never stored by the loader
)

// Value is a dynamically-typed cell in a table.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Date  time.Time
	Bool  bool
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// DateVal creates a date value.
func DateVal(v time.Time) Value {
	return Value{Type: TypeDate, Date: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// IsNumeric returns true for int and float values.
func (v Value) IsNumeric() bool {
	return v.Type == TypeInt || v.Type == TypeFloat
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsString returns the string representation. Null renders empty.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return ""
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeString:
		return v.Str
	case TypeDate:
		if v.Date.Hour() == 0 && v.Date.Minute() == 0 && v.Date.Second() == 0 {
			return v.Date.Format("2006-01-02")
		}
		return v.Date.Format("2006-01-02 15:04:05")
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// AsBool coerces to boolean for logical operations. Null counts as false.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// Equal reports whether two values are the same typed value.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeInt:
		return v.Int == o.Int
	case TypeFloat:
		return v.Float == o.Float
	case TypeString:
		return v.Str == o.Str
	case TypeDate:
		return v.Date.Equal(o.Date)
	case TypeBool:
		return v.Bool == o.Bool
	}
	return false
}

// Row is a single row in a table. ID is a stable identity assigned when
// the row first enters a table; filtering carries it through so scoped
// edits can scatter nested results back by identity rather than by
// position (positions shift once rows are filtered).
type Row struct {
	ID     int
	Values []Value
}

// Table is the core data structure: columns + rows.
type Table struct {
	Columns []string
	Rows    []Row

	nextID int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		Rows:    nil,
	}
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddRow appends a row with a fresh identity.
func (t *Table) AddRow(values []Value) {
	t.Rows = append(t.Rows, Row{ID: t.nextID, Values: values})
	t.nextID++
}

// Append appends an existing row, preserving its identity.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
	if row.ID >= t.nextID {
		t.nextID = row.ID + 1
	}
}

// Get returns the value at a given row index and column name.
func (t *Table) Get(row int, col string) Value {
	idx := t.ColIndex(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row].Values[idx]
}

// Clone creates a deep copy of the table structure (cell values are
// immutable and can be shared).
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]Value, len(r.Values))
		copy(vals, r.Values)
		rows[i] = Row{ID: r.ID, Values: vals}
	}
	return &Table{Columns: cols, Rows: rows, nextID: t.nextID}
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return "[" + strings.Join(t.Columns, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range t.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range r.Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.Columns[j])
			sb.WriteString(":")
			if v.IsNull() {
				sb.WriteString("null")
			} else {
				sb.WriteString(v.AsString())
			}
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
