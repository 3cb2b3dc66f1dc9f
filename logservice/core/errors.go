package core

import (
	"errors"
	"fmt"

	"logbook/internal/models"
)

// ErrNotFound is returned when an operation by identifier matches no entry.
var ErrNotFound = errors.New("Log not found")

// StoreError wraps any failure talking to the store. Its detail is meant for
// the server log, not for the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *models.ValidationError.
func IsValidation(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}

// IsStoreError reports whether err is a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
