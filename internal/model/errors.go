package model

import (
	"errors"
	"sort"
	"strings"
)

// PersistenceError reports a failed store operation. Error returns only the
// generic Message; the underlying cause is kept for logs and errors.Unwrap.
type PersistenceError struct {
	Message string
	Err     error
}

func NewPersistenceError(message string, err error) *PersistenceError {
	return &PersistenceError{Message: message, Err: err}
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const CodeValidation = "VALIDATION_FAILED"
