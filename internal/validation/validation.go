// Package validation composes pure single-field checks into aggregate
// pass/fail results. A validator never fails fast across fields: callers
// collect every field's errors into a models.ValidationErrors map so a
// client sees all problems in one response.
package validation

// Validation is the result of checking one raw value: either a typed value
// or the list of messages explaining why it was rejected.
type Validation[T any] struct {
	value  T
	errors []string
}

func Valid[T any](value T) Validation[T] {
	return Validation[T]{value: value}
}

func Invalid[T any](messages ...string) Validation[T] {
	return Validation[T]{errors: messages}
}

func (v Validation[T]) Valid() bool {
	return len(v.errors) == 0
}

// Value returns the validated value; meaningful only when Valid().
func (v Validation[T]) Value() T {
	return v.value
}

func (v Validation[T]) Errors() []string {
	return v.errors
}

// Map transforms the value of a valid result and passes an invalid one
// through untouched.
func Map[A, B any](v Validation[A], fn func(A) B) Validation[B] {
	if !v.Valid() {
		return Invalid[B](v.errors...)
	}
	return Valid(fn(v.value))
}

// Optional runs validate only when present is true, treating an absent
// value as trivially valid. This is the lever behind draft-mode leniency.
func Optional[T any](present bool, zero T, validate func() Validation[T]) Validation[T] {
	if !present {
		return Valid(zero)
	}
	return validate()
}

// Array validates every element and collects all failures rather than
// stopping at the first.
func Array[A, B any](raw []A, validate func(A) Validation[B]) Validation[[]B] {
	values := make([]B, 0, len(raw))
	var messages []string
	for _, r := range raw {
		v := validate(r)
		if v.Valid() {
			values = append(values, v.value)
			continue
		}
		messages = append(messages, v.errors...)
	}
	if len(messages) > 0 {
		return Invalid[[]B](messages...)
	}
	return Valid(values)
}
