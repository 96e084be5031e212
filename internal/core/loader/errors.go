package loader

import (
	"errors"
	"fmt"
)

// ErrLoadFailed matches every error returned by a failed load.
var ErrLoadFailed = errors.New("load failed")

// LoadError describes which step of a load failed.
type LoadError struct {
	ID  string
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.ID, e.Op, e.Err)
}

// Unwrap exposes both ErrLoadFailed and the cause to errors.Is and
// errors.As.
func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}
