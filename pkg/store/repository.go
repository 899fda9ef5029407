package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	fields "github.com/goliatone/go-fields"
	"github.com/goliatone/go-fields/pkg/activity"
	"github.com/google/uuid"
)

// Repository persists records for a single schema behind a Store and Codec.
// Every successful operation receives a fresh snapshot id; the codec defaults
// to CBOR when left nil.
type Repository struct {
	Schema   *fields.Schema
	Store    Store
	Codec    Codec
	Activity *activity.Emitter
}

func (r Repository) codec() Codec {
	if r.Codec != nil {
		return r.Codec
	}
	return CBORCodec{}
}

func (r Repository) validate() error {
	if r.Schema == nil {
		return fmt.Errorf("store: schema is required")
	}
	if r.Store == nil {
		return fmt.Errorf("store: store is required")
	}
	return nil
}

// Save encodes the record and writes it under the schema kind. When meta.ETag
// is set it must match the stored ETag or the save fails with ErrETagMismatch.
func (r Repository) Save(ctx context.Context, id string, record *fields.Record, meta Meta) (Meta, error) {
	if err := r.validate(); err != nil {
		return Meta{}, err
	}
	if record == nil {
		return Meta{}, fmt.Errorf("store: record is required")
	}
	if record.Kind() != r.Schema.Kind() {
		return Meta{}, fmt.Errorf("%w: record is %q, repository is %q", ErrKindMismatch, record.Kind(), r.Schema.Kind())
	}

	ref := Ref{Kind: r.Schema.Kind(), ID: id}
	if _, err := ref.Identifier(); err != nil {
		return Meta{}, err
	}

	saveMeta := meta
	if meta.ETag != "" {
		_, storedMeta, ok, err := r.Store.Load(ctx, ref)
		if err != nil {
			return Meta{}, fmt.Errorf("store: load %q: %w", ref.Kind, err)
		}
		if ok && storedMeta.ETag != "" && storedMeta.ETag != meta.ETag {
			return storedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, storedMeta.ETag)
		}
		if ok {
			// Stored metadata the caller did not restate (Extra, UpdatedAt)
			// carries forward across a conditional save.
			saveMeta = mergeMeta(storedMeta, meta)
		}
	}

	payload, err := record.Encode()
	if err != nil {
		return Meta{}, err
	}
	data, err := r.codec().Encode(ref.Kind, payload)
	if err != nil {
		return Meta{}, err
	}

	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = saveMeta.SnapshotID
	if meta.UpdatedAt.IsZero() {
		saveMeta.UpdatedAt = time.Now()
	}

	savedMeta, err := r.Store.Save(ctx, ref, data, saveMeta)
	if err != nil {
		return Meta{}, fmt.Errorf("store: save %q: %w", ref.Kind, err)
	}

	r.emit(ctx, activity.BuildRecordSavedEvent(activity.RecordEventInput{
		Kind:       ref.Kind,
		RecordID:   ref.ID,
		SnapshotID: savedMeta.SnapshotID,
	}))
	return savedMeta, nil
}

// Load reads and decodes one record. Missing records return ErrNotFound;
// decode failures surface the partially decoded record alongside the error.
func (r Repository) Load(ctx context.Context, id string) (*fields.Record, Meta, error) {
	if err := r.validate(); err != nil {
		return nil, Meta{}, err
	}

	ref := Ref{Kind: r.Schema.Kind(), ID: id}
	if _, err := ref.Identifier(); err != nil {
		return nil, Meta{}, err
	}

	data, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("store: load %q: %w", ref.Kind, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Kind, ref.ID)
	}

	kind, payload, err := r.codec().Decode(data)
	if err != nil {
		return nil, meta, err
	}
	if kind != ref.Kind {
		return nil, meta, fmt.Errorf("%w: stored as %q, repository is %q", ErrKindMismatch, kind, ref.Kind)
	}

	record, decodeErr := r.Schema.Decode(payload)
	if decodeErr != nil {
		var fieldErr *fields.DecodeError
		if errors.As(decodeErr, &fieldErr) && fieldErr.Field != "" {
			r.emit(ctx, activity.BuildFieldRejectedEvent(activity.RecordEventInput{
				Kind:       ref.Kind,
				RecordID:   ref.ID,
				SnapshotID: meta.SnapshotID,
				Field:      fieldErr.Field,
			}))
		}
	}
	r.emit(ctx, activity.BuildRecordLoadedEvent(activity.RecordEventInput{
		Kind:       ref.Kind,
		RecordID:   ref.ID,
		SnapshotID: meta.SnapshotID,
	}))
	return record, meta, decodeErr
}

// Delete removes one record. Deleting a missing record returns ErrNotFound.
func (r Repository) Delete(ctx context.Context, id string) error {
	if err := r.validate(); err != nil {
		return err
	}

	ref := Ref{Kind: r.Schema.Kind(), ID: id}
	if _, err := ref.Identifier(); err != nil {
		return err
	}

	_, _, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("store: load %q: %w", ref.Kind, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Kind, ref.ID)
	}

	if err := r.Store.Delete(ctx, ref); err != nil {
		return fmt.Errorf("store: delete %q: %w", ref.Kind, err)
	}

	r.emit(ctx, activity.BuildRecordDeletedEvent(activity.RecordEventInput{
		Kind:     ref.Kind,
		RecordID: ref.ID,
	}))
	return nil
}

func (r Repository) emit(ctx context.Context, event activity.Event) {
	if r.Activity == nil || !r.Activity.Enabled() {
		return
	}
	_ = r.Activity.Emit(ctx, event)
}
