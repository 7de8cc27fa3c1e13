// Package store defines the Token Store contract consumed by the session
// manager and ships two backends: an in-process [Memory] map and a
// Redis-backed [Redis] store.
//
// # Architecture boundaries
//
// A Store only moves opaque string values under string keys. It does NOT
// decode tokens, judge expiry, or notify anyone; those are the session
// manager's responsibilities.
//
// # What this package must NOT do
//
//   - Import the root authsession package or jwt (no upward imports).
//   - Interpret stored values.
package store
