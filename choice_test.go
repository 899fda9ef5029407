package fields

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestChoiceValidateNamesValueAndChoices(t *testing.T) {
	field := Choice([]any{"red", "green", "blue"})
	if err := field.Validate("green"); err != nil {
		t.Fatalf("expected member to validate, got %v", err)
	}

	err := field.Validate("purple")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Value != "purple" {
		t.Fatalf("expected offending value, got %v", validationErr.Value)
	}
	if !reflect.DeepEqual(validationErr.Choices, []any{"red", "green", "blue"}) {
		t.Fatalf("expected legal choices listed, got %v", validationErr.Choices)
	}
	if !strings.Contains(validationErr.Error(), "must be one of the allowed choices") {
		t.Fatalf("unexpected message: %v", validationErr)
	}
}

func TestChoiceOrdinalsFollowDeclarationOrder(t *testing.T) {
	field := Choice([]any{"a", "b", "b", "c"})
	if err := field.buildError(); err != nil {
		t.Fatalf("duplicates should be dropped, not rejected: %v", err)
	}
	if got := field.Choices(); !reflect.DeepEqual(got, []any{"a", "b", "c"}) {
		t.Fatalf("expected deduplicated choices in order, got %v", got)
	}
	for want, value := range []any{"a", "b", "c"} {
		ordinal, err := field.Ordinal(value)
		if err != nil {
			t.Fatalf("ordinal %v: %v", value, err)
		}
		if ordinal != want {
			t.Fatalf("expected ordinal %d for %v, got %d", want, value, ordinal)
		}
	}
}

func TestChoiceNormalizesIntegerMembers(t *testing.T) {
	field := Choice([]any{1, 2, 3})
	if err := field.Validate(int32(2)); err != nil {
		t.Fatalf("expected int32 member to validate after normalization, got %v", err)
	}
	ordinal, err := field.Ordinal(uint8(3))
	if err != nil {
		t.Fatalf("ordinal: %v", err)
	}
	if ordinal != 2 {
		t.Fatalf("expected ordinal 2, got %d", ordinal)
	}
}

func TestChoiceSetAcceptsIntegerMembers(t *testing.T) {
	schema, err := NewSchema("ticket").
		Field("level", Choice([]any{1, 2, 3})).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	record := schema.NewRecord()
	if err := record.Set("level", 2); err != nil {
		t.Fatalf("expected untyped int member to be assignable, got %v", err)
	}
	if err := record.Set("level", int32(3)); err != nil {
		t.Fatalf("expected int32 member to be assignable, got %v", err)
	}
	level, err := record.Get("level")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if level != int64(3) {
		t.Fatalf("expected normalized member, got %v (%T)", level, level)
	}
}

func TestChoiceSerializeRoundtrip(t *testing.T) {
	field := Choice([]any{"draft", "published", "archived"})
	data, err := field.Serialize("archived")
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	value, err := field.Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if value != "archived" {
		t.Fatalf("expected archived, got %v", value)
	}
}

func TestChoiceDeserializeRejectsCorruptPayloads(t *testing.T) {
	field := Choice([]any{"a", "b"})

	if _, err := field.Deserialize(nil); err == nil {
		t.Fatalf("expected error on empty payload")
	}

	// Ordinal beyond the declared set.
	if _, err := field.Deserialize([]byte{9}); err == nil {
		t.Fatalf("expected error on out-of-range ordinal")
	}

	// Trailing bytes after the ordinal.
	_, err := field.Deserialize([]byte{0, 0})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Scheme != "choice" {
		t.Fatalf("expected choice scheme, got %q", decodeErr.Scheme)
	}
}

func TestChoiceSerializeRejectsNonMembers(t *testing.T) {
	field := Choice([]any{"a", "b"})
	if _, err := field.Serialize("z"); err == nil {
		t.Fatalf("expected serialize to reject non-members")
	}
}

func TestChoiceConstructionErrors(t *testing.T) {
	if err := Choice(nil).buildError(); err == nil {
		t.Fatalf("expected error for empty set")
	}
	if err := Choice([]any{"a", nil}).buildError(); err == nil {
		t.Fatalf("expected error for nil member")
	}
	if err := Choice([]any{[]string{"not comparable"}}).buildError(); err == nil {
		t.Fatalf("expected error for non-comparable member")
	}
	if err := Choice([]any{"a"}, ChoiceDefault("b")).buildError(); err == nil {
		t.Fatalf("expected error for default outside set")
	}
	if err := Choice([]any{"a"}, ChoiceDefault("a")).buildError(); err != nil {
		t.Fatalf("expected member default to be accepted, got %v", err)
	}
}
