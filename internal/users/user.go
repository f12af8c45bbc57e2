package users

import (
	"errors"
	"sort"
	"strings"
)

// User is a single record held by the Store.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name  *string `json:"name" validate:"omitnil,min=2,max=100"`
	Email *string `json:"email" validate:"omitnil,email"`
}

// ErrNotFound is returned when no user matches the requested id.
var ErrNotFound = errors.New("user not found")

// ValidationError names every field that failed validation together with
// a short human-readable reason.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
