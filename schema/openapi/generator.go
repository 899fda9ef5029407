package openapi

import (
	"fmt"
	"strings"

	fields "github.com/goliatone/go-fields"
)

type generator struct{}

// NewGenerator constructs an OpenAPI-compatible schema generator.
func NewGenerator() fields.SchemaGenerator {
	return generator{}
}

// Option returns a fields.Option that wires the OpenAPI schema generator into a schema.
func Option() fields.Option {
	return fields.WithSchemaGenerator(NewGenerator())
}

func (generator) Generate(schema *fields.Schema) (fields.SchemaDocument, error) {
	if schema == nil {
		return fields.SchemaDocument{}, fmt.Errorf("openapi: schema is required")
	}

	properties := make(map[string]any)
	for _, name := range schema.Fields() {
		descriptor, ok := schema.Descriptor(name)
		if !ok {
			continue
		}
		property, err := buildProperty(descriptor)
		if err != nil {
			return fields.SchemaDocument{}, fmt.Errorf("openapi: field %q: %w", name, err)
		}
		properties[name] = property
	}

	return fields.SchemaDocument{
		Format: fields.SchemaFormatOpenAPI,
		Kind:   schema.Kind(),
		Document: map[string]any{
			"type":       "object",
			"properties": properties,
		},
	}, nil
}

func buildProperty(descriptor fields.Descriptor) (map[string]any, error) {
	switch descriptor.Kind() {
	case fields.KindScalar:
		return scalarProperty(descriptor.Type())
	case fields.KindDerived:
		property, err := scalarProperty(descriptor.Type())
		if err != nil {
			return nil, err
		}
		property["readOnly"] = true
		return property, nil
	case fields.KindChoice:
		return choiceProperty(descriptor)
	case fields.KindCompressed:
		return compressedProperty(descriptor)
	case fields.KindPacked:
		return packedProperty(descriptor.Type())
	default:
		return nil, fmt.Errorf("unsupported field kind %q", descriptor.Kind())
	}
}

func scalarProperty(valueType string) (map[string]any, error) {
	switch valueType {
	case "string":
		return map[string]any{"type": "string"}, nil
	case "int64":
		return map[string]any{"type": "integer", "format": "int64"}, nil
	case "float64":
		return map[string]any{"type": "number", "format": "double"}, nil
	case "bool":
		return map[string]any{"type": "boolean"}, nil
	case "bytes":
		return map[string]any{"type": "string", "format": "byte"}, nil
	case "list":
		return map[string]any{"type": "array", "items": map[string]any{}}, nil
	case "any":
		return map[string]any{}, nil
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", valueType),
		}, nil
	}
}

func choiceProperty(descriptor fields.Descriptor) (map[string]any, error) {
	choicer, ok := descriptor.(interface{ Choices() []any })
	if !ok {
		return nil, fmt.Errorf("choice descriptor %T does not expose choices", descriptor)
	}
	choices := choicer.Choices()
	property := map[string]any{"enum": choices}
	if len(choices) > 0 {
		typed, err := scalarProperty(goScalarName(choices[0]))
		if err == nil {
			for key, value := range typed {
				property[key] = value
			}
		}
	}
	return property, nil
}

func compressedProperty(descriptor fields.Descriptor) (map[string]any, error) {
	property, err := scalarProperty(descriptor.Type())
	if err != nil {
		return nil, err
	}
	if schemer, ok := descriptor.(interface{ Scheme() fields.Compression }); ok {
		property["x-compression"] = schemer.Scheme().String()
	}
	return property, nil
}

func packedProperty(valueType string) (map[string]any, error) {
	element := strings.TrimPrefix(valueType, "[]")
	var items map[string]any
	switch element {
	case "float32", "float64":
		items = map[string]any{"type": "number"}
	default:
		items = map[string]any{"type": "integer"}
	}
	return map[string]any{"type": "array", "items": items}, nil
}

func goScalarName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case int64:
		return "int64"
	case float64:
		return "float64"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", value)
	}
}
