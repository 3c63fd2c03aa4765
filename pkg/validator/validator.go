package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects every failed rule. It matches ErrValidationFailed with errors.Is.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrValidationFailed }

// Map returns the first message per field.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// Rule is a deferred check bound to a field.
type Rule struct {
	Check func() bool
	Error FieldError
}

// Apply evaluates every rule and returns Errors, or nil when all pass.
func Apply(rules ...Rule) error {
	var errs Errors
	for _, r := range rules {
		if !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Extract returns the field errors inside err, if any.
func Extract(err error) (Errors, bool) {
	var errs Errors
	ok := errors.As(err, &errs)
	return errs, ok
}

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: FieldError{Field: field, Message: "is required"},
	}
}

// MaxLen counts runes, not bytes.
func MaxLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= n },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", n)},
	}
}

func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be one of %v", allowed)},
	}
}

func NonNegative[T ~int | ~int32 | ~int64 | ~float64](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value >= 0 },
		Error: FieldError{Field: field, Message: "cannot be negative"},
	}
}

// When skips rule unless cond holds.
func When(cond bool, rule Rule) Rule {
	if cond {
		return rule
	}
	return Rule{Check: func() bool { return true }}
}
