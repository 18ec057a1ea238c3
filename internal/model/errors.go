package model

import (
	"errors"
	"fmt"
)

// ErrValidation marks input that failed validation.
var ErrValidation = errors.New("validation failed")

// Invalid returns an ErrValidation carrying a field-specific message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
