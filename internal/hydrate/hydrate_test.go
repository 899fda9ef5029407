package hydrate

import (
	"errors"
	"strings"
	"testing"

	fields "github.com/goliatone/go-fields"
)

func buildSchema(t *testing.T) *fields.Schema {
	t.Helper()
	schema, err := fields.NewSchema("profile").
		Field("name", fields.String()).
		Field("name_lower", fields.LowerCase("name")).
		Field("status", fields.Choice([]any{"active", "inactive"})).
		Build()
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return schema
}

func TestDecodeAppliesDefaults(t *testing.T) {
	schema := buildSchema(t)
	decoder := NewDecoder(schema,
		WithDefaults(map[string]any{"status": "active", "name": "fallback"}),
	)

	record, err := decoder.Decode(Context{Kind: "profile"}, map[string]any{
		"name": "Explicit",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	name, _ := record.Get("name")
	status, _ := record.Get("status")
	if name != "Explicit" {
		t.Fatalf("expected payload to win over defaults, got %v", name)
	}
	if status != "active" {
		t.Fatalf("expected default filled, got %v", status)
	}
}

func TestDecodeRunsHooksInOrder(t *testing.T) {
	schema := buildSchema(t)
	var postSeen string
	decoder := NewDecoder(schema,
		WithPreHook(func(ctx Context, payload map[string]any) (map[string]any, error) {
			payload["name"] = "FromPreHook"
			return payload, nil
		}),
		WithPostHook(func(ctx Context, record *fields.Record) error {
			value, err := record.Get("name_lower")
			if err != nil {
				return err
			}
			postSeen, _ = value.(string)
			return nil
		}),
	)

	_, err := decoder.Decode(Context{Kind: "profile", RecordID: "p-1"}, map[string]any{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if postSeen != "fromprehook" {
		t.Fatalf("expected post hook to observe decoded record, got %q", postSeen)
	}
}

func TestDecodeHookFailures(t *testing.T) {
	schema := buildSchema(t)
	boom := errors.New("boom")

	pre := NewDecoder(schema, WithPreHook(func(Context, map[string]any) (map[string]any, error) {
		return nil, boom
	}))
	if _, err := pre.Decode(Context{Kind: "profile"}, map[string]any{}); !errors.Is(err, boom) {
		t.Fatalf("expected pre-hook failure, got %v", err)
	}

	post := NewDecoder(schema, WithPostHook(func(Context, *fields.Record) error {
		return boom
	}))
	if _, err := post.Decode(Context{Kind: "profile"}, map[string]any{}); !errors.Is(err, boom) {
		t.Fatalf("expected post-hook failure, got %v", err)
	}
}

func TestDecodeRequiresSchemaAndPayload(t *testing.T) {
	if _, err := NewDecoder(nil).Decode(Context{}, map[string]any{}); err == nil {
		t.Fatalf("expected error without schema")
	}
	if _, err := NewDecoder(buildSchema(t)).Decode(Context{Kind: "profile"}, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestDecodeDoesNotMutateCallerPayload(t *testing.T) {
	schema := buildSchema(t)
	decoder := NewDecoder(schema,
		WithPreHook(func(_ Context, payload map[string]any) (map[string]any, error) {
			payload["name"] = "mutated"
			return payload, nil
		}),
	)

	original := map[string]any{"name": "original"}
	if _, err := decoder.Decode(Context{Kind: "profile"}, original); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if original["name"] != "original" {
		t.Fatalf("expected caller payload untouched, got %v", original["name"])
	}
}

func TestMergePayloadsNestedMaps(t *testing.T) {
	strong := map[string]any{
		"settings": map[string]any{"theme": "dark"},
		"name":     "strong",
	}
	weak := map[string]any{
		"settings": map[string]any{"theme": "light", "lang": "en"},
		"extra":    true,
	}

	merged := MergePayloads(strong, weak)
	settings := merged["settings"].(map[string]any)
	if settings["theme"] != "dark" {
		t.Fatalf("expected strong value kept, got %v", settings["theme"])
	}
	if settings["lang"] != "en" {
		t.Fatalf("expected weak value filled, got %v", settings["lang"])
	}
	if merged["name"] != "strong" || merged["extra"] != true {
		t.Fatalf("unexpected merge: %v", merged)
	}
}

func TestMergePayloadsClonesValues(t *testing.T) {
	weak := map[string]any{"tags": []any{"a"}}
	merged := MergePayloads(nil, weak)
	merged["tags"].([]any)[0] = "changed"
	if weak["tags"].([]any)[0] != "a" {
		t.Fatalf("expected weak payload isolated from merge result")
	}
}

func TestDecodeWrapsSchemaErrors(t *testing.T) {
	schema := buildSchema(t)
	decoder := NewDecoder(schema)

	_, err := decoder.Decode(Context{Kind: "profile"}, map[string]any{
		"status": []byte{0xFF},
	})
	if err == nil {
		t.Fatalf("expected decode failure for corrupt field")
	}
	var decodeErr *fields.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), `hydrate: decode kind "profile"`) {
		t.Fatalf("expected hydrate context on error, got %v", err)
	}
}
