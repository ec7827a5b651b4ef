// Package schema loads training configuration documents into validated,
// strongly typed values. A document is parsed once at startup, defaults are
// applied, shorthand notation is normalized, and every invariant is checked
// before the configuration is handed to consumers. Loaded configurations are
// read-only; failures surface as ParseError, SchemaError, or ValidationError
// identifying the offending key path.
package schema
