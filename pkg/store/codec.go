package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	fields "github.com/goliatone/go-fields"
)

// Codec serializes an encoded record payload together with its kind.
type Codec interface {
	Encode(kind string, payload fields.Payload) ([]byte, error)
	Decode(data []byte) (kind string, payload fields.Payload, err error)
}

type cborEnvelope struct {
	Kind   string         `cbor:"kind"`
	Fields map[string]any `cbor:"fields"`
}

// CBORCodec wraps record payloads in a CBOR envelope. The zero value is ready
// to use.
type CBORCodec struct{}

func (CBORCodec) Encode(kind string, payload fields.Payload) ([]byte, error) {
	if kind == "" {
		return nil, fmt.Errorf("store: codec kind is required")
	}
	data, err := cbor.Marshal(cborEnvelope{Kind: kind, Fields: payload})
	if err != nil {
		return nil, fmt.Errorf("store: encode %q: %w", kind, err)
	}
	return data, nil
}

func (CBORCodec) Decode(data []byte) (string, fields.Payload, error) {
	var envelope cborEnvelope
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("store: decode envelope: %w", err)
	}
	if envelope.Kind == "" {
		return "", nil, fmt.Errorf("store: decode envelope: missing kind")
	}
	return envelope.Kind, fields.Payload(envelope.Fields), nil
}
