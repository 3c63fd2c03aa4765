// Package validator builds request validation from small declarative rules.
//
//	err := validator.Apply(
//		validator.Required("name", in.Name),
//		validator.MaxLen("name", in.Name, 200),
//	)
//
// Apply reports every failing rule at once; the result matches
// ErrValidationFailed and Extract recovers the per-field messages.
package validator
