package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "[float]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// FloatType validates numeric values. Integers are accepted since YAML
// decodes whole numbers as int.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// SliceType validates lists whose elements all match one type.
type SliceType struct {
	elem Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elem.Name())
}

func (t *SliceType) Validate(value any) error {
	return collect("", t, value)
}

// ObjectType validates a nested map against a schema.
type ObjectType struct {
	fields Schema
}

func (t *ObjectType) Name() string {
	keys := t.fields.keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + t.fields[k].Name()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (t *ObjectType) Validate(value any) error {
	return collect("", t, value)
}

// OptionalType marks a field that may be absent or null.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Float creates a numeric type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a list validator for elements of the given type.
func Slice(elem Type) Type { return &SliceType{elem: elem} }

// Object creates a validator for a nested map.
func Object(fields Schema) Type { return &ObjectType{fields: fields} }

// Optional allows the field to be missing or null.
func Optional(inner Type) Type { return &OptionalType{inner: inner} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

func isOptional(t Type) bool {
	_, ok := t.(*OptionalType)
	return ok
}

// collect validates value against t and returns every failure keyed by its
// path below prefix, or nil.
func collect(prefix string, t Type, value any) error {
	var errs []error
	walk(prefix, t, value, &errs)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func walk(path string, t Type, value any, errs *[]error) {
	switch typ := t.(type) {
	case *OptionalType:
		if value == nil {
			return
		}
		walk(path, typ.inner, value, errs)

	case *ObjectType:
		m, ok := asMap(value)
		if !ok {
			*errs = append(*errs, &ValidationError{Key: path, Reason: "expected object", Value: value})
			return
		}
		walkFields(path, typ.fields, m, errs)

	case *SliceType:
		rv := reflect.ValueOf(value)
		if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			*errs = append(*errs, &ValidationError{Key: path, Reason: "expected list", Value: value})
			return
		}
		for i := 0; i < rv.Len(); i++ {
			walk(fmt.Sprintf("%s[%d]", path, i), typ.elem, rv.Index(i).Interface(), errs)
		}

	default:
		if err := t.Validate(value); err != nil {
			*errs = append(*errs, &ValidationError{Key: path, Reason: err.Error(), Value: value})
		}
	}
}

func walkFields(prefix string, s Schema, data map[string]any, errs *[]error) {
	for _, key := range s.keys() {
		typ := s[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		value, exists := data[key]
		if !exists {
			if !isOptional(typ) {
				*errs = append(*errs, &ValidationError{Key: path, Reason: "required"})
			}
			continue
		}
		walk(path, typ, value, errs)
	}
}

// asMap accepts the map shapes produced by encoding/json and yaml.v3.
func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func (s Schema) keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
