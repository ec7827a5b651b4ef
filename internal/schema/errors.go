package schema

import "fmt"

// ParseError indicates the document is not well-formed YAML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse config: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError indicates an unknown key, an unrecognized token, or a value of
// the wrong type or shape. Field is the dotted key path of the offender.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// ValidationError indicates a well-typed value that violates an invariant.
// Field is the dotted key path of the offender.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

func schemaErrf(field, format string, args ...any) error {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func validationErrf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
