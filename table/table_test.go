package table

import (
	"testing"
	"time"
)

func TestValueAsString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{IntVal(42), "42"},
		{IntVal(-7), "-7"},
		{FloatVal(1.5), "1.5"},
		{StrVal("hello"), "hello"},
		{BoolVal(true), "true"},
		{BoolVal(false), "false"},
		{DateVal(time.Date(2014, 1, 13, 0, 0, 0, 0, time.UTC)), "2014-01-13"},
		{DateVal(time.Date(2014, 1, 13, 9, 30, 0, 0, time.UTC)), "2014-01-13 09:30:00"},
	}
	for _, tt := range tests {
		if got := tt.v.AsString(); got != tt.want {
			t.Errorf("AsString(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValueAsFloat(t *testing.T) {
	if f, ok := IntVal(3).AsFloat(); !ok || f != 3.0 {
		t.Errorf("IntVal(3).AsFloat() = %v, %v", f, ok)
	}
	if f, ok := FloatVal(2.5).AsFloat(); !ok || f != 2.5 {
		t.Errorf("FloatVal(2.5).AsFloat() = %v, %v", f, ok)
	}
	if _, ok := StrVal("3").AsFloat(); ok {
		t.Error("string should not coerce to float")
	}
	if _, ok := Null().AsFloat(); ok {
		t.Error("null should not coerce to float")
	}
}

func TestValueAsBool(t *testing.T) {
	if b, ok := BoolVal(true).AsBool(); !ok || !b {
		t.Errorf("BoolVal(true).AsBool() = %v, %v", b, ok)
	}
	if b, ok := Null().AsBool(); !ok || b {
		t.Errorf("Null().AsBool() = %v, %v, want false, true", b, ok)
	}
	if _, ok := IntVal(1).AsBool(); ok {
		t.Error("int should not coerce to bool")
	}
}

func TestValueEqual(t *testing.T) {
	if !IntVal(1).Equal(IntVal(1)) {
		t.Error("1 should equal 1")
	}
	if IntVal(1).Equal(StrVal("1")) {
		t.Error("int 1 should not equal string \"1\"")
	}
	if !Null().Equal(Null()) {
		t.Error("null should equal null")
	}
	d := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	if !DateVal(d).Equal(DateVal(d)) {
		t.Error("equal dates should be equal")
	}
}

func TestAddRowAssignsFreshIDs(t *testing.T) {
	tbl := NewTable([]string{"a"})
	tbl.AddRow([]Value{IntVal(1)})
	tbl.AddRow([]Value{IntVal(2)})
	tbl.AddRow([]Value{IntVal(3)})

	if tbl.Rows[0].ID == tbl.Rows[1].ID || tbl.Rows[1].ID == tbl.Rows[2].ID {
		t.Errorf("row IDs should be distinct: %d %d %d", tbl.Rows[0].ID, tbl.Rows[1].ID, tbl.Rows[2].ID)
	}
}

func TestAppendPreservesIDs(t *testing.T) {
	src := NewTable([]string{"a"})
	src.AddRow([]Value{IntVal(1)})
	src.AddRow([]Value{IntVal(2)})

	dst := NewTable([]string{"a"})
	dst.Append(src.Rows[1])
	if dst.Rows[0].ID != src.Rows[1].ID {
		t.Errorf("Append should keep ID %d, got %d", src.Rows[1].ID, dst.Rows[0].ID)
	}

	// A fresh row added afterwards must not collide with the carried ID.
	dst.AddRow([]Value{IntVal(3)})
	if dst.Rows[1].ID == dst.Rows[0].ID {
		t.Error("AddRow after Append reused an existing ID")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := NewTable([]string{"a", "b"})
	tbl.AddRow([]Value{IntVal(1), StrVal("x")})

	clone := tbl.Clone()
	clone.Columns[0] = "renamed"
	clone.Rows[0].Values[0] = IntVal(99)

	if tbl.Columns[0] != "a" {
		t.Error("clone shared the columns slice")
	}
	if tbl.Rows[0].Values[0].Int != 1 {
		t.Error("clone shared the row values")
	}
	if clone.Rows[0].ID != tbl.Rows[0].ID {
		t.Error("clone should keep row IDs")
	}
}

func TestGet(t *testing.T) {
	tbl := NewTable([]string{"a", "b"})
	tbl.AddRow([]Value{IntVal(1), StrVal("x")})

	if v := tbl.Get(0, "b"); v.Str != "x" {
		t.Errorf("Get(0, b) = %v", v)
	}
	if v := tbl.Get(0, "missing"); !v.IsNull() {
		t.Errorf("Get on missing column should be null, got %v", v)
	}
	if v := tbl.Get(5, "a"); !v.IsNull() {
		t.Errorf("Get out of range should be null, got %v", v)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2014-01-13", 2014, time.January, 13},
		{"13/01/2014", 2014, time.January, 13},
		{"3/2/2014", 2014, time.February, 3},
		{"13-01-2014", 2014, time.January, 13},
		{"2014/01/13", 2014, time.January, 13},
		{"2014-01-13T09:30:00", 2014, time.January, 13},
	}
	for _, tt := range tests {
		d, ok := ParseDate(tt.in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", tt.in)
			continue
		}
		if d.Year() != tt.year || d.Month() != tt.month || d.Day() != tt.day {
			t.Errorf("ParseDate(%q) = %v", tt.in, d)
		}
	}

	if _, ok := ParseDate("not a date"); ok {
		t.Error("ParseDate should reject non-dates")
	}
	if _, ok := ParseDate("12345"); ok {
		t.Error("ParseDate should reject bare numbers")
	}
}
