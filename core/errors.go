package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when a referenced resource does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// DuplicateError is returned when a uniqueness rule would be violated.
type DuplicateError struct {
	Field   string
	Message string
}

func NewDuplicateError(field, msg string) error {
	return &DuplicateError{Field: field, Message: msg}
}

func (err DuplicateError) Error() string {
	return err.Message
}

// LimitExceededError is returned when the attendance admission rule rejects a record.
type LimitExceededError struct {
	Semester int
	Max      int
}

func NewLimitExceededError(semester, max int) error {
	return &LimitExceededError{Semester: semester, Max: max}
}

func (err LimitExceededError) Error() string {
	return fmt.Sprintf(
		"Studentul a atins limita maximă de %d prezențe pentru acest curs în semestrul %d",
		err.Max, err.Semester,
	)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
