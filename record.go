package fields

import (
	"errors"
	"fmt"
)

// Payload is the encoded form of a record: field name to persisted value.
// Fields with a Serializer descriptor contribute []byte; plain fields
// contribute their logical value. Absent fields are omitted.
type Payload map[string]any

// Record is one entity instance described by a Schema. Lifecycle is owned by
// the host persistence framework; records only react to get/set on the
// fields they declare. A Record is not safe for concurrent mutation.
type Record struct {
	schema *Schema
	values map[string]any
}

// NewRecord constructs an empty record for the schema.
func (s *Schema) NewRecord() *Record {
	return &Record{
		schema: s,
		values: map[string]any{},
	}
}

// Schema returns the schema this record belongs to.
func (r *Record) Schema() *Schema {
	if r == nil {
		return nil
	}
	return r.schema
}

// Kind returns the record kind.
func (r *Record) Kind() string {
	return r.Schema().Kind()
}

// Get returns the current value of the named field. Derived fields are
// computed on demand when lazy, and memoized when materialized. Unset fields
// report the descriptor default.
func (r *Record) Get(name string) (any, error) {
	desc, err := r.descriptor(name)
	if err != nil {
		return nil, err
	}

	if derived, ok := desc.(DerivedDescriptor); ok {
		if derived.Materialized() {
			if value, ok := r.values[name]; ok {
				return value, nil
			}
			value, err := derived.Derive(r)
			if err != nil {
				return nil, newDerivationError(name, "", err)
			}
			r.values[name] = value
			return value, nil
		}
		value, err := derived.Derive(r)
		if err != nil {
			return nil, newDerivationError(name, "", err)
		}
		return value, nil
	}

	if value, ok := r.values[name]; ok {
		return value, nil
	}
	return desc.Default(), nil
}

// Set assigns value to the named field after validation, then recomputes
// every materialized derived field in declaration order. Assigning to a
// derived field fails with ErrDerivedAssignment. Validation failures leave
// the record unchanged; a derivation failure propagates to the caller with
// the write already applied (no rollback).
func (r *Record) Set(name string, value any) error {
	desc, err := r.descriptor(name)
	if err != nil {
		return err
	}
	if _, ok := desc.(DerivedDescriptor); ok {
		return fmt.Errorf("fields: %s: %w", name, ErrDerivedAssignment)
	}

	if value == nil {
		delete(r.values, name)
		return r.recompute()
	}

	if err := desc.Validate(value); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) && validationErr.Field == "" {
			validationErr.Field = name
		}
		return err
	}
	if normalizer, ok := desc.(interface{ normalize(any) (any, error) }); ok {
		normalized, err := normalizer.normalize(value)
		if err != nil {
			return err
		}
		value = normalized
	}

	r.values[name] = value
	return r.recompute()
}

// Unset removes the named field's value, reverting reads to the descriptor
// default, then recomputes materialized derived fields.
func (r *Record) Unset(name string) error {
	desc, err := r.descriptor(name)
	if err != nil {
		return err
	}
	if _, ok := desc.(DerivedDescriptor); ok {
		return fmt.Errorf("fields: %s: %w", name, ErrDerivedAssignment)
	}
	delete(r.values, name)
	return r.recompute()
}

// Has reports whether the named field currently holds a value.
func (r *Record) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[name]
	return ok
}

// Values returns a snapshot of the record's current field values. Derived
// fields appear only when materialized and already computed.
func (r *Record) Values() map[string]any {
	if r == nil {
		return nil
	}
	snapshot := make(map[string]any, len(r.values))
	for name, value := range r.values {
		snapshot[name] = value
	}
	return snapshot
}

// Encode produces the record's persisted payload. Materialized derived
// fields are recomputed first so the stored value equals compute(record) at
// the persistence boundary. Encoding an unchanged record twice yields
// identical payloads.
func (r *Record) Encode() (Payload, error) {
	if r == nil || r.schema == nil {
		return nil, fmt.Errorf("fields: record has no schema")
	}
	if err := r.recompute(); err != nil {
		return nil, err
	}

	payload := make(Payload, len(r.values))
	for _, name := range r.schema.names {
		desc := r.schema.descs[name]
		if derived, ok := desc.(DerivedDescriptor); ok && !derived.Materialized() {
			continue
		}
		value, ok := r.values[name]
		if !ok {
			if value = desc.Default(); value == nil {
				continue
			}
		}
		if serializer, ok := desc.(Serializer); ok {
			data, err := serializer.Serialize(value)
			if err != nil {
				return nil, fmt.Errorf("fields: %s: serialize: %w", name, err)
			}
			payload[name] = data
			continue
		}
		payload[name] = value
	}
	return payload, nil
}

// Decode reconstructs a record from a persisted payload. Unknown payload
// keys are ignored for forward compatibility. When a field's bytes are
// corrupt the field is left unset and a DecodeError is returned alongside
// the partially decoded record so callers can salvage the healthy fields.
func (s *Schema) Decode(payload Payload) (*Record, error) {
	rec := s.NewRecord()
	if payload == nil {
		return rec, nil
	}

	var firstErr error
	for _, name := range s.names {
		raw, ok := payload[name]
		if !ok || raw == nil {
			continue
		}
		desc := s.descs[name]
		if serializer, ok := desc.(Serializer); ok {
			if data, ok := raw.([]byte); ok {
				value, err := serializer.Deserialize(data)
				if err != nil {
					if firstErr == nil {
						firstErr = newDecodeError(name, "", err)
					}
					continue
				}
				rec.values[name] = value
				continue
			}
			// Loose payloads (hydration, host codecs that decoded past the
			// field framing) carry logical values instead of encoded bytes;
			// run them through the descriptor contract like a Set would.
			value, err := decodeLogical(desc, raw)
			if err != nil {
				if firstErr == nil {
					firstErr = newDecodeError(name, "", err)
				}
				continue
			}
			rec.values[name] = value
			continue
		}
		rec.values[name] = normalizeLoose(raw)
	}
	return rec, firstErr
}

// decodeLogical admits a plain value for a serializer-backed field by running
// it through the same validate/normalize path a write takes.
func decodeLogical(desc Descriptor, raw any) (any, error) {
	if err := desc.Validate(raw); err != nil {
		return nil, err
	}
	if normalizer, ok := desc.(interface{ normalize(any) (any, error) }); ok {
		return normalizer.normalize(raw)
	}
	return normalizeLoose(raw), nil
}

func (r *Record) descriptor(name string) (Descriptor, error) {
	if r == nil || r.schema == nil {
		return nil, fmt.Errorf("fields: record has no schema")
	}
	desc, ok := r.schema.descs[name]
	if !ok {
		return nil, fmt.Errorf("fields: %s: unknown field on kind %q", name, r.schema.kind)
	}
	return desc, nil
}

// recompute refreshes every materialized derived field in declaration order.
func (r *Record) recompute() error {
	for _, name := range r.schema.names {
		derived, ok := r.schema.descs[name].(DerivedDescriptor)
		if !ok || !derived.Materialized() {
			continue
		}
		value, err := derived.Derive(r)
		if err != nil {
			return newDerivationError(name, "", err)
		}
		if value == nil {
			delete(r.values, name)
			continue
		}
		r.values[name] = value
	}
	return nil
}
