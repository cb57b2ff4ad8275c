package errorvalues

import (
	"errors"

	"github.com/limbo/habitrack/pkg/daykey"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrHabitNotFound       = errors.New("habit doesn't exist")
	ErrUserNotFound        = errors.New("user doesn't exists")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidDayKey       = daykey.ErrInvalidKey
	ErrUpstreamUnavailable = errors.New("recommendation service unavailable")
	ErrPersistence         = errors.New("persistence failure")
)

// PersistenceError wraps a storage failure with the operation that caused it.
// It matches ErrPersistence with errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return e.Op + " error: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
