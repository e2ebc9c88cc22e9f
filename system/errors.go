package system

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrForbidden = errors.New("this action is unauthorized")
	ErrNotFound  = errors.New("resource not found")
)

// ValidationError carries per-field messages. It is returned before any
// mutation happens.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Error returns the first message, plus a count of the remaining ones.
func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	total := 0
	for k, msgs := range e.Fields {
		keys = append(keys, k)
		total += len(msgs)
	}
	sort.Strings(keys)

	first := e.Fields[keys[0]][0]
	switch total {
	case 1:
		return first
	case 2:
		return first + " (and 1 more error)"
	}
	return fmt.Sprintf("%s (and %d more errors)", first, total-1)
}

func validationFailed(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}
