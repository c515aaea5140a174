package locations

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no location matches the id.
var ErrNotFound = errors.New("location not found")

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Reason))
	}
	return "invalid location: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}
