package openapi

import (
	"reflect"
	"testing"

	fields "github.com/goliatone/go-fields"
)

func buildSchema(t *testing.T, opts ...fields.Option) *fields.Schema {
	t.Helper()
	schema, err := fields.NewSchema("article", opts...).
		Field("title", fields.String()).
		Field("views", fields.Int()).
		Field("rating", fields.Float()).
		Field("published", fields.Bool()).
		Field("title_lower", fields.LowerCase("title")).
		Field("status", fields.Choice([]any{"draft", "published"})).
		Field("body", fields.CompressedText(fields.CompressionZstd)).
		Field("attachment", fields.CompressedBlob(fields.CompressionLZ4)).
		Field("scores", fields.Packed[int32]()).
		Field("samples", fields.Packed[float64]()).
		Build()
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return schema
}

func TestGenerateDocumentShape(t *testing.T) {
	doc, err := NewGenerator().Generate(buildSchema(t))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != fields.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", fields.SchemaFormatOpenAPI, doc.Format)
	}
	if doc.Kind != "article" {
		t.Fatalf("expected kind carried, got %q", doc.Kind)
	}

	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected object document, got %T", doc.Document)
	}
	if document["type"] != "object" {
		t.Fatalf("expected object type, got %v", document["type"])
	}
	properties := document["properties"].(map[string]any)

	cases := map[string]map[string]any{
		"title":      {"type": "string"},
		"views":      {"type": "integer", "format": "int64"},
		"rating":     {"type": "number", "format": "double"},
		"published":  {"type": "boolean"},
		"body":       {"type": "string", "x-compression": "zstd"},
		"attachment": {"type": "string", "format": "byte", "x-compression": "lz4"},
	}
	for name, want := range cases {
		got, ok := properties[name].(map[string]any)
		if !ok {
			t.Fatalf("missing property %q", name)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestGenerateDerivedIsReadOnly(t *testing.T) {
	doc, err := NewGenerator().Generate(buildSchema(t))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	properties := doc.Document.(map[string]any)["properties"].(map[string]any)
	lower := properties["title_lower"].(map[string]any)
	if lower["readOnly"] != true {
		t.Fatalf("expected derived property marked readOnly, got %v", lower)
	}
	if lower["type"] != "string" {
		t.Fatalf("expected derived value type, got %v", lower["type"])
	}
}

func TestGenerateChoiceEnum(t *testing.T) {
	doc, err := NewGenerator().Generate(buildSchema(t))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	properties := doc.Document.(map[string]any)["properties"].(map[string]any)
	status := properties["status"].(map[string]any)
	if status["type"] != "string" {
		t.Fatalf("expected string enum, got %v", status["type"])
	}
	if !reflect.DeepEqual(status["enum"], []any{"draft", "published"}) {
		t.Fatalf("expected enum values, got %v", status["enum"])
	}
}

func TestGeneratePackedArrays(t *testing.T) {
	doc, err := NewGenerator().Generate(buildSchema(t))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	properties := doc.Document.(map[string]any)["properties"].(map[string]any)

	scores := properties["scores"].(map[string]any)
	if scores["type"] != "array" || scores["items"].(map[string]any)["type"] != "integer" {
		t.Fatalf("unexpected packed integer schema: %v", scores)
	}
	samples := properties["samples"].(map[string]any)
	if samples["items"].(map[string]any)["type"] != "number" {
		t.Fatalf("unexpected packed float schema: %v", samples)
	}
}

func TestGenerateNilSchemaErrors(t *testing.T) {
	if _, err := NewGenerator().Generate(nil); err == nil {
		t.Fatalf("expected error for nil schema")
	}
}

func TestOptionWiresGeneratorIntoSchema(t *testing.T) {
	schema := buildSchema(t, Option())
	doc, err := schema.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Format != fields.SchemaFormatOpenAPI {
		t.Fatalf("expected openapi document from schema, got %q", doc.Format)
	}
}
