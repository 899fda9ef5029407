// Package store defines persistence-facing contracts for loading and saving
// encoded records, plus a small repository that orchestrates encoding and
// delegates field semantics to the core go-fields primitives.
//
// Responsibilities:
//   - Store only loads/saves one opaque blob for a single Ref.
//   - Codec frames an encoded record payload together with its kind; the
//     default framing is a CBOR envelope.
//   - Repository ties a schema, a store, and a codec together and stamps each
//     save with a fresh snapshot id used as the ETag for optimistic
//     concurrency.
//
// Data flow:
//
//	Record.Encode -> Codec.Encode -> Store.Save
//	Store.Load -> Codec.Decode -> Schema.Decode -> *fields.Record
//
// The core fields package remains persistence-agnostic; all persistence logic
// stays behind Store implementations supplied by consumers.
package store
