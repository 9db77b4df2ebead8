package models

import (
	"errors"
	"strings"
)

var (
	// ErrPermission deliberately carries no detail: callers must not be able
	// to tell a missing entity from one they cannot see or act on.
	ErrPermission = errors.New("user does not exist or has no permission for this operation")
	ErrNotFound   = errors.New("requested entity does not exist")
	ErrConflict   = errors.New("operation conflicts with the current state of the entity")
	// ErrDatabase wraps unexpected persistence failures; its message is the
	// only thing ever surfaced to clients.
	ErrDatabase = errors.New("database error")
)

// ValidationErrors is the field -> messages map produced by the validation
// pipeline. It is expected control flow, returned rather than logged, and
// surfaced verbatim as a 400 body.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

func (v ValidationErrors) Add(field string, messages ...string) {
	if len(messages) > 0 {
		v[field] = append(v[field], messages...)
	}
}

func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// AsValidationErrors unwraps err down to a ValidationErrors map, if one is
// anywhere in its chain.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
