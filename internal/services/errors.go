package services

import (
	"errors"
	"strings"

	"presupuesto/internal/core"
)

var (
	// ErrUnauthenticated means no user identity reached the service.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound covers both a missing row and a row owned by someone
	// else. Callers never learn which.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries the field-keyed messages from input validation.
type ValidationError struct {
	Fields core.FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
