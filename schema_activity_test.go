package fields

import (
	"context"
	"testing"

	"github.com/goliatone/go-fields/pkg/activity"
)

func TestWithActivityHooksDropsNilEntries(t *testing.T) {
	capture := &activity.CaptureHook{}
	schema, err := NewSchema("doc",
		WithActivityHooks(activity.Hooks{nil, capture, nil}),
	).
		Field("name", String()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hooks := schema.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("expected nil hooks dropped, got %d", len(hooks))
	}

	event := activity.BuildRecordSavedEvent(activity.RecordEventInput{
		Kind:     "doc",
		RecordID: "doc-1",
	})
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(capture.Events))
	}
}

func TestActivityHooksReturnsDetachedSlice(t *testing.T) {
	capture := &activity.CaptureHook{}
	schema, err := NewSchema("doc",
		WithActivityHooks(activity.Hooks{capture}),
	).
		Field("name", String()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hooks := schema.ActivityHooks()
	hooks[0] = nil
	if again := schema.ActivityHooks(); again[0] == nil {
		t.Fatalf("expected schema hooks unaffected by caller mutation")
	}
}

func TestActivityHooksNilSchema(t *testing.T) {
	var schema *Schema
	if hooks := schema.ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks on nil schema, got %v", hooks)
	}
}
