package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")

	// ErrEmptyModule is returned when a quiz is started on a module with no questions.
	ErrEmptyModule = errors.New("module has no questions")

	// ErrSessionComplete is returned by Current and Submit once every question was answered.
	ErrSessionComplete = errors.New("quiz session already complete")
)

// ValidationError reports malformed user input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
