// Package schema validates decoded documents (maps produced by encoding/json
// or yaml.v3) against a small structural type system.
//
// Schemas map field names to types. Types nest through Object and Slice, and
// every failure is reported with the dotted path of the offending value:
//
//	nodeSchema := schema.Object(schema.Schema{
//	    "id":       schema.String(),
//	    "label":    schema.String(),
//	    "position": schema.Object(schema.Schema{"x": schema.Float(), "y": schema.Float()}),
//	    "tags":     schema.Optional(schema.Slice(schema.String())),
//	})
//
//	err := schema.Validate(schema.Schema{"nodes": schema.Slice(nodeSchema)}, doc)
//	for _, e := range schema.ValidationErrors(err) {
//	    fmt.Println(e) // field "nodes[0].position.x": expected number (got string)
//	}
//
// Custom validators cover domain rules:
//
//	version := schema.Custom("version", func(v any) error {
//	    if v != "1.0" {
//	        return fmt.Errorf("unsupported version %v", v)
//	    }
//	    return nil
//	})
//
// The package depends only on the standard library.
package schema
