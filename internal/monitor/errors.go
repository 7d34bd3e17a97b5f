package monitor

import "fmt"

// ValidationError reports a malformed reading field or an out-of-range
// request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ImportError carries the first offending row of a rejected import batch.
// An import is atomic: one bad row rejects the whole batch.
type ImportError struct {
	Row    int
	Reason string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected at row %d: %s", e.Row, e.Reason)
}

// PersistenceError wraps a load/save failure from the storage adapter.
// Always recoverable: the core keeps operating on in-memory state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
