package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the target stitch does not exist.
	ErrNotFound = errors.New("stitch not found")
	// ErrInvalidReference means a superseding reference was supplied without
	// the superseded status, or names a stitch that does not exist.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidStatus means the requested status cannot be applied.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrForceRequired means auto-detection disagrees with the request and
	// no override was given.
	ErrForceRequired = errors.New("force required")
	// ErrIO means a write failed mid-operation. Everything written so far
	// was restored before the error was returned.
	ErrIO = errors.New("write failed")
)

// ForceRequiredError carries the human-readable reason auto-detection
// refused the requested status.
type ForceRequiredError struct {
	ID     string
	Reason string
}

func (e *ForceRequiredError) Error() string {
	return fmt.Sprintf("force required to finish %s: %s", e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrForceRequired) match.
func (e *ForceRequiredError) Is(target error) bool {
	return target == ErrForceRequired
}
