package codec

import (
	"fmt"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/schema"
)

// ParseError reports text that is not well-formed JSON or YAML.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports a match against domain.ErrParse.
func (e *ParseError) Is(target error) bool { return target == domain.ErrParse }

// SchemaError reports a well-formed document with missing or mistyped fields.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid envelope: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Is reports a match against domain.ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == domain.ErrSchema }

// Fields returns the individual field failures, if any.
func (e *SchemaError) Fields() []error {
	return schema.ValidationErrors(e.Err)
}
