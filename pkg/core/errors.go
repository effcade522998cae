package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist for the given
// tenant/id pair. Callers map it to a 404-equivalent outcome; it is
// distinct from validation failures.
var ErrNotFound = errors.New("not found")

// ValidationError reports an invalid field on a create or update request.
// The operation fails synchronously and nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
