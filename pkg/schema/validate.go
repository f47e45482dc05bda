package schema

// Schema is a map of field names to their expected types.
// Example: {"id": String(), "position": Object(Schema{"x": Float(), "y": Float()})}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Every failure is reported, keyed by its dotted path (e.g. "nodes[2].position.x").
// Fields not named in the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	walkFields("", schema, data, &errs)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only specific fields from data against the schema.
// Missing non-optional fields are treated as an error.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	subset := make(Schema, len(fields))
	var errs []error
	for _, name := range fields {
		typ, ok := schema[name]
		if !ok {
			errs = append(errs, &ValidationError{Key: name, Reason: "not defined in schema"})
			continue
		}
		subset[name] = typ
	}
	walkFields("", subset, data, &errs)

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
