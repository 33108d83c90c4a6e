package scheduler

import (
	"errors"
	"fmt"
)

// ErrPastDate is returned when a write targets a calendar date strictly
// before today. Same-day writes are allowed at any time of day.
var ErrPastDate = errors.New("date is in the past")

// ValidationError reports a request that is malformed before any remote
// call is made: a reserved occasion name, or a binding that is not
// exactly one of occasion / daily.
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
