package lesson

import "fmt"

// FormatError reports an import payload that is malformed or incomplete.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid lesson document: %s: %v", e.Reason, e.Err)
	}
	return "invalid lesson document: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError reports an edit rejected by the block catalog or a field schema.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// PreconditionError reports a deletion refused by a minimum-count rule or
// declined by the caller's confirmation.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IndexError reports an index outside the addressed sequence.
type IndexError struct {
	Op    string
	What  string // "section", "block", "group", "row", "column", "item"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %s index %d out of range [0,%d)", e.Op, e.What, e.Index, e.Len)
}

func validationf(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func checkIndex(op, what string, i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Op: op, What: what, Index: i, Len: n}
	}
	return nil
}
