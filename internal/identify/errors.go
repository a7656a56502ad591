package identify

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the global time budget was exhausted before results
// could be assembled. Per-extractor share timeouts never raise this; they
// degrade into Metadata.Errors.
var ErrTimeout = errors.New("identification timed out")

// ProcessingError is the umbrella for orchestration-level failures: the
// overall time budget was breached, or an unexpected error escaped the
// per-extractor containment. Per-extractor failures never raise this; they
// are recorded in Metadata.Errors instead.
type ProcessingError struct {
	Msg string
	Err error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("subject processing: %s: %v", e.Msg, e.Err)
	}
	return "subject processing: " + e.Msg
}

func (e *ProcessingError) Unwrap() error { return e.Err }
