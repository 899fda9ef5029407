package hydrate

import (
	"fmt"

	fields "github.com/goliatone/go-fields"
)

// Context carries identifiers tied to an inbound payload.
type Context struct {
	Kind     string
	RecordID string
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated record after decoding.
type PostHook func(Context, *fields.Record) error

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts loosely typed payloads into schema-backed records.
type Decoder struct {
	schema    *fields.Schema
	preHooks  []PreHook
	postHooks []PostHook
	defaults  map[string]any
}

// WithPreHook applies hook prior to decoding.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDefaults fills keys missing from the payload before decoding. Nested
// maps merge key by key; payload values always win over defaults.
func WithDefaults(defaults map[string]any) DecoderOption {
	return func(d *Decoder) {
		d.defaults = MergePayloads(d.defaults, defaults)
	}
}

func NewDecoder(schema *fields.Schema, opts ...DecoderOption) *Decoder {
	d := &Decoder{schema: schema}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into a record applying defaults and configured hooks.
func (d *Decoder) Decode(ctx Context, payload map[string]any) (*fields.Record, error) {
	if d.schema == nil {
		return nil, fmt.Errorf("hydrate: schema is required")
	}
	if payload == nil {
		return nil, fmt.Errorf("hydrate: payload is nil for kind %q", ctx.Kind)
	}

	current := MergePayloads(payload, d.defaults)

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for kind %q failed: %w", ctx.Kind, err)
		}
		if next != nil {
			current = next
		}
	}

	record, err := d.schema.Decode(fields.Payload(current))
	if err != nil {
		return nil, fmt.Errorf("hydrate: decode kind %q: %w", ctx.Kind, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, record); err != nil {
			return nil, fmt.Errorf("hydrate: post-hook for kind %q failed: %w", ctx.Kind, err)
		}
	}

	return record, nil
}

// MergePayloads composes a strong payload over a weak one, returning a new map
// that keeps explicit settings from the strong payload while filling missing
// keys from the weak one. Nested map[string]any values merge recursively;
// everything else replaces wholesale.
func MergePayloads(strong, weak map[string]any) map[string]any {
	if strong == nil && weak == nil {
		return nil
	}
	out := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		out[key] = clonePayloadValue(value)
	}
	for key, value := range strong {
		existing, ok := out[key]
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := existing.(map[string]any)
		if ok && strongIsMap && weakIsMap {
			out[key] = MergePayloads(strongMap, weakMap)
			continue
		}
		out[key] = clonePayloadValue(value)
	}
	return out
}

func clonePayloadValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, element := range typed {
			out[key] = clonePayloadValue(element)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, element := range typed {
			out[i] = clonePayloadValue(element)
		}
		return out
	case []byte:
		return append([]byte(nil), typed...)
	default:
		return value
	}
}
