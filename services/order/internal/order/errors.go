package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by repositories when a write targets a missing document.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is wrapped by repositories when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q", e.Status)
}

// ConflictError reports a request that contradicts stored state, such as a
// booth/table mismatch or a path/body id mismatch.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ValidationErrors collects field failures so the handler can report them
// all at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s %s", v[0].Field, v[0].Message)
}
