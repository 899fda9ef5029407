package fields

import (
	"errors"
	"fmt"
)

// ErrDerivedAssignment is returned when a caller attempts to assign a value
// directly to a derived field.
var ErrDerivedAssignment = errors.New("fields: cannot assign to a derived field")

// ValidationError reports an assignment outside a field's declared domain.
// The record is left unchanged when one is returned.
type ValidationError struct {
	Field   string
	Value   any
	Choices []any
	Reason  string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Choices) > 0 {
		return fmt.Sprintf("fields: %s: value %v must be one of the allowed choices %v", e.Field, e.Value, e.Choices)
	}
	if e.Reason != "" {
		return fmt.Sprintf("fields: %s: invalid value %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("fields: %s: invalid value %v", e.Field, e.Value)
}

// DecodeError reports corrupt or malformed persisted bytes encountered while
// deserializing a field. The field is left unset when one is returned.
type DecodeError struct {
	Field  string
	Scheme string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Scheme != "" {
		return fmt.Sprintf("fields: %s: decode %s payload: %v", e.Field, e.Scheme, e.Err)
	}
	return fmt.Sprintf("fields: %s: decode payload: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DerivationError wraps a failure propagating from a derivation function or
// expression. It surfaces to the caller of the write that triggered the
// recomputation.
type DerivationError struct {
	Field string
	Expr  string
	Err   error
}

func (e *DerivationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Expr != "" {
		return fmt.Sprintf("fields: %s: derive expr=%q: %v", e.Field, e.Expr, e.Err)
	}
	return fmt.Sprintf("fields: %s: derive: %v", e.Field, e.Err)
}

func (e *DerivationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newDecodeError(field, scheme string, err error) error {
	if err == nil {
		return nil
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		if decodeErr.Field == "" {
			decodeErr.Field = field
		}
		if decodeErr.Scheme == "" {
			decodeErr.Scheme = scheme
		}
		return decodeErr
	}
	return &DecodeError{Field: field, Scheme: scheme, Err: err}
}

func newDerivationError(field, expr string, err error) error {
	if err == nil {
		return nil
	}
	var deriveErr *DerivationError
	if errors.As(err, &deriveErr) {
		if deriveErr.Field == "" {
			deriveErr.Field = field
		}
		if deriveErr.Expr == "" {
			deriveErr.Expr = expr
		}
		return deriveErr
	}
	return &DerivationError{Field: field, Expr: expr, Err: err}
}
