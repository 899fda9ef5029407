package usersink

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-fields/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type stubSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *stubSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookForwardsMappedRecord(t *testing.T) {
	sink := &stubSink{}
	hook := Hook{Sink: sink}
	actorID := uuid.NewString()

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "record.saved",
		ActorID:    actorID,
		ObjectType: "article",
		ObjectID:   "a-1",
		Channel:    "records",
		Metadata:   map[string]any{"snapshot_id": "snap-1"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.Verb != "record.saved" || record.ObjectType != "article" || record.ObjectID != "a-1" {
		t.Fatalf("unexpected mapping: %+v", record)
	}
	if record.ActorID.String() != actorID {
		t.Fatalf("expected actor uuid parsed, got %s", record.ActorID)
	}
	if record.Data["snapshot_id"] != "snap-1" {
		t.Fatalf("expected metadata carried as data: %+v", record.Data)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt defaulted")
	}
}

func TestHookInvalidUUIDFallsBackToNil(t *testing.T) {
	sink := &stubSink{}
	hook := Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "record.saved",
		ActorID:    "not-a-uuid",
		ObjectType: "article",
		ObjectID:   "a-1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil uuid for invalid actor, got %s", sink.records[0].ActorID)
	}
}

func TestHookSkipsIncompleteEvents(t *testing.T) {
	sink := &stubSink{}
	hook := Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: "record.saved"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected incomplete event dropped, got %d", len(sink.records))
	}
}

func TestHookNilSinkNoop(t *testing.T) {
	hook := Hook{}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "x"}); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}

func TestHookPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := Hook{Sink: &stubSink{err: boom}}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       "record.saved",
		ObjectType: "article",
		ObjectID:   "a-1",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error propagated, got %v", err)
	}
}
