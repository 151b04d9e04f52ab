// Package memory provides per-user long-term conversation memory.
//
// # Backends
//
// Three Store implementations:
//
//   - Mem0Store: the hosted Mem0 memory service over its REST API. Every
//     request carries a user_id filter; that filter is the isolation
//     boundary between users.
//   - SQLiteStore: a local database (modernc.org/sqlite) with the same
//     contract, used when the hosted service is unreachable.
//   - FallbackStore: composes the two. Remote first, local on error.
//
// # Failure Policy
//
// Long-term memory is an enhancement, never a dependency. The
// FallbackStore is written so a memory outage degrades personalization
// (empty context) instead of failing or blocking a conversation. Reads
// that fail on both backends return an empty slice with a nil error.
//
// Writes that land in the local store during a remote outage are not
// replayed to the remote service later; the at-most-once gap is accepted.
//
// # Isolation
//
// For every backend, Recent(u1) never returns a turn written under a
// different user id. The SQLite schema keys rows by user_id and the Mem0
// client filters every search by user_id.
package memory
