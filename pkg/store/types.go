package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("store: record not found")

var ErrETagMismatch = errors.New("store: etag mismatch")

var ErrKindMismatch = errors.New("store: record kind mismatch")

// Ref identifies one persisted record of a given kind.
type Ref struct {
	Kind string
	ID   string
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one encoded record for a single reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (data []byte, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, data []byte, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

func (r Ref) Identifier() (string, error) {
	if r.Kind == "" {
		return "", fmt.Errorf("store: ref kind is required")
	}
	if r.ID == "" {
		return "", fmt.Errorf("store: ref id is required")
	}
	return fmt.Sprintf("%s/%s", r.Kind, r.ID), nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
