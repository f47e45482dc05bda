package schema

import (
	"errors"
	"strings"
	"testing"
)

var nodeSchema = Object(Schema{
	"id":       String(),
	"label":    String(),
	"phrases":  Slice(String()),
	"flag":     Optional(Bool()),
	"position": Object(Schema{"x": Float(), "y": Float()}),
})

func TestValidate_Success(t *testing.T) {
	data := map[string]any{
		"nodes": []any{
			map[string]any{
				"id":       "greet",
				"label":    "Greet",
				"phrases":  []any{"hi"},
				"position": map[string]any{"x": 1.5, "y": 2},
			},
		},
		"unknown": "ignored",
	}

	if err := Validate(Schema{"nodes": Slice(nodeSchema)}, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(nil, map[string]any{"any": 1}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	err := Validate(Schema{"name": String(), "version": String()}, map[string]any{"name": "bot"})
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	var aggr *AggregateError
	if !errors.As(err, &aggr) {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if len(aggr.Errors) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(aggr.Errors))
	}

	var validErr *ValidationError
	if !errors.As(aggr.Errors[0], &validErr) {
		t.Fatalf("error should be *ValidationError, got %T", aggr.Errors[0])
	}
	if validErr.Key != "version" || validErr.Reason != "required" {
		t.Errorf("got %+v, want required version", validErr)
	}
}

func TestValidate_NestedPaths(t *testing.T) {
	data := map[string]any{
		"nodes": []any{
			map[string]any{
				"id":       "ok",
				"label":    "Ok",
				"phrases":  []any{},
				"position": map[string]any{"x": 0, "y": 0},
			},
			map[string]any{
				"id":       7,
				"label":    "Bad",
				"phrases":  []any{"fine", false},
				"flag":     "yes",
				"position": map[string]any{"x": "left"},
			},
		},
	}

	err := Validate(Schema{"nodes": Slice(nodeSchema)}, data)
	errs := ValidationErrors(err)

	var keys []string
	for _, e := range errs {
		var ve *ValidationError
		if errors.As(e, &ve) {
			keys = append(keys, ve.Key)
		}
	}
	want := []string{
		"nodes[1].flag",
		"nodes[1].id",
		"nodes[1].phrases[1]",
		"nodes[1].position.x",
		"nodes[1].position.y",
	}
	if strings.Join(keys, " ") != strings.Join(want, " ") {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if !strings.Contains(err.Error(), "5 validation errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidate_OptionalMissing(t *testing.T) {
	err := Validate(Schema{"exportedAt": Optional(String())}, map[string]any{})
	if err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidateFields(t *testing.T) {
	s := Schema{"a": String(), "b": Float()}
	data := map[string]any{"a": "x", "b": "not a number"}

	if err := ValidateFields(s, data, "a"); err != nil {
		t.Errorf("ValidateFields(a) error = %v, want nil", err)
	}
	if err := ValidateFields(s, data, "b"); err == nil {
		t.Error("ValidateFields(b) should fail")
	}
	if errs := ValidationErrors(ValidateFields(s, data, "c")); len(errs) != 1 {
		t.Errorf("ValidateFields(c) = %v, want one error", errs)
	}
	if err := ValidateFields(s, data); err != nil {
		t.Errorf("ValidateFields() error = %v, want nil", err)
	}
}

func TestValidationErrors_NonAggregate(t *testing.T) {
	if errs := ValidationErrors(errors.New("plain")); errs != nil {
		t.Errorf("ValidationErrors() = %v, want nil", errs)
	}
}
