package shared

import "fmt"

// RowError rejects a single input row; processing continues with the next one
type RowError struct {
	Line   int
	Reason RejectionReason
	Err    error
}

func (e *RowError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Is matches another RowError with the same reason, or any RowError when the target reason is empty
func (e *RowError) Is(target error) bool {
	t, ok := target.(*RowError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// SourceError means the input itself could not be read; the run is abandoned
type SourceError struct {
	Source string
	Line   int // Last row reached, 0 if none
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q unreadable near line %d: %v", e.Source, e.Line, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
