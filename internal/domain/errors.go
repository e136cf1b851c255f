package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks a locally rejected edit: malformed connector endpoints,
// sizes below the minimum, degenerate marquees. These never reach storage and
// are never shown to the user.
var ErrValidation = errors.New("validation rejected")

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PersistenceError wraps a failed create/update/delete call.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
