package engine

import "fmt"

// UnknownActionError reports an action name missing from the registry.
// It is always raised at construction, before anything executes.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("action %q unknown", e.Name)
}

// ColumnNotFoundError reports a reference to an absent column.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// SyntaxError reports a formula or predicate that does not parse.
type SyntaxError struct {
	Expr string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression %q: %v", e.Expr, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// TypeMismatchError reports an operator applied to incompatible operands.
type TypeMismatchError struct {
	Op    string
	Left  string
	Right string
}

func (e *TypeMismatchError) Error() string {
	if e.Right == "" {
		return fmt.Sprintf("cannot apply %s to %s", e.Op, e.Left)
	}
	return fmt.Sprintf("cannot apply %s to %s and %s", e.Op, e.Left, e.Right)
}

// RegexError reports an extraction pattern that does not compile or
// lacks a capture group.
type RegexError struct {
	Pattern string
	Err     error
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *RegexError) Unwrap() error { return e.Err }
