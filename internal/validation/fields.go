package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]*[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`)
)

// String enforces inclusive length bounds on a free-text field.
func String(raw, name string, min, max int) Validation[string] {
	if len(raw) < min || len(raw) > max {
		return Invalid[string](fmt.Sprintf("%s must be between %d and %d characters long", name, min, max))
	}
	return Valid(raw)
}

// Number enforces inclusive numeric bounds.
func Number(raw float64, name string, min, max float64) Validation[float64] {
	var messages []string
	if raw < min {
		messages = append(messages, fmt.Sprintf("%s must be at least %v", name, min))
	}
	if raw > max {
		messages = append(messages, fmt.Sprintf("%s must be at most %v", name, max))
	}
	if len(messages) > 0 {
		return Invalid[float64](messages...)
	}
	return Valid(raw)
}

// NumberWithPrecision bounds a number and caps its decimal places.
func NumberWithPrecision(raw float64, name string, min, max float64, maxPrecision int32) Validation[float64] {
	bounded := Number(raw, name, min, max)
	if !bounded.Valid() {
		return bounded
	}
	d := decimal.NewFromFloat(raw)
	if d.Exponent() < -maxPrecision {
		return Invalid[float64](fmt.Sprintf("%s must have at most %d decimal places", name, maxPrecision))
	}
	return bounded
}

// Date checks a timestamp against an optional lower bound. Chained stage
// dates pass the previous stage's resolved date as minDate.
func Date(raw time.Time, name string, minDate *time.Time) Validation[time.Time] {
	if minDate != nil && raw.Before(*minDate) {
		return Invalid[time.Time](fmt.Sprintf("%s must be on or after %s", name, minDate.Format("2006-01-02")))
	}
	return Valid(raw)
}

func Email(raw string) Validation[string] {
	if !emailPattern.MatchString(raw) {
		return Invalid[string]("please enter a valid email address")
	}
	return Valid(raw)
}

func Phone(raw string) Validation[string] {
	if !phonePattern.MatchString(raw) {
		return Invalid[string]("please enter a valid phone number")
	}
	return Valid(raw)
}

func UUID(raw string) Validation[string] {
	if _, err := uuid.Parse(raw); err != nil {
		return Invalid[string]("please provide a valid id")
	}
	return Valid(raw)
}
