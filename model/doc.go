// Package model defines the record domain of a Manifold graph database:
// entities, edges, and the property value sum type, together with the
// binary record codec used by the storage layer.
//
// # Records
//
//   - Entity: node-like record with an identifier, a label set, and a
//     property map
//   - Edge: relationship record with an identifier, source/target entity
//     identifiers, a type tag, and a property map
//
// # Values
//
// Value is a closed sum type over the property kinds a record may carry:
// null, bool, int, float, string, bytes, array, dense vector, sparse
// vector, and multi-vector. Every kind has a defined canonical JSON form
// (Value implements json.Marshaler) so projection and export agree on the
// textual rendering.
//
// Records are immutable once decoded. DecodeEntity and DecodeEdge return
// an error on any truncated or unrecognized input; callers are expected to
// skip such records rather than abort a scan.
package model
