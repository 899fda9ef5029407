package activity

import (
	"strings"
	"time"
)

// RecordEventInput describes the common fields for record lifecycle events.
type RecordEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Kind       string
	RecordID   string
	SnapshotID string
	Field      string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRecordSavedEvent constructs a normalized activity event for a record save.
func BuildRecordSavedEvent(input RecordEventInput) Event {
	return buildRecordEvent("record.saved", input)
}

// BuildRecordLoadedEvent constructs a normalized activity event for a record load.
func BuildRecordLoadedEvent(input RecordEventInput) Event {
	return buildRecordEvent("record.loaded", input)
}

// BuildRecordDeletedEvent constructs a normalized activity event for a record deletion.
func BuildRecordDeletedEvent(input RecordEventInput) Event {
	return buildRecordEvent("record.deleted", input)
}

// BuildFieldRejectedEvent constructs an activity event describing a field
// assignment rejected by validation.
func BuildFieldRejectedEvent(input RecordEventInput) Event {
	return buildRecordEvent("field.rejected", input)
}

func buildRecordEvent(verb string, input RecordEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Field != "" {
		metadata = ensureMetadata(metadata)
		metadata["field"] = input.Field
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}

	objectType := strings.TrimSpace(input.Kind)
	if objectType == "" {
		objectType = "record"
	}
	objectID := strings.TrimSpace(input.RecordID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
