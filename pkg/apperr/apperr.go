// Package apperr defines the engine's error taxonomy. Every rejected
// operation falls into one of three classes, decided before any state
// change: validation (missing/empty input), not-found (unknown record)
// or business-rule (precondition on current state). The message text of
// business-rule errors is part of the API contract; callers match on it.
package apperr

import "errors"

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a lookup of a record that does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// BusinessRuleError reports an operation rejected by a domain rule,
// e.g. forging from a non-potential blessing or a duplicate bid.
type BusinessRuleError struct {
	Msg string
}

func (e *BusinessRuleError) Error() string { return e.Msg }

// Validation builds a ValidationError.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// NotFound builds a NotFoundError.
func NotFound(msg string) error { return &NotFoundError{Msg: msg} }

// BusinessRule builds a BusinessRuleError.
func BusinessRule(msg string) error { return &BusinessRuleError{Msg: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

// IsBusinessRule reports whether err is (or wraps) a BusinessRuleError.
func IsBusinessRule(err error) bool {
	var v *BusinessRuleError
	return errors.As(err, &v)
}
