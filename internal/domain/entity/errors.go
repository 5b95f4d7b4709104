package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidSource is matched by every ValidationError.
var ErrInvalidSource = errors.New("invalid feed source")

// ValidationError reports which FeedSource field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feed source %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSource) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSource
}
