// Package store caches encoded archives in SQLite across process runs.
//
// Each entry is keyed by ir.ArchiveKey(unit, source) and records the
// archive bytes, the program fingerprint, the format version it was written
// with and a CBOR manifest summarizing its scopes.
//
// # Ordering
//
// Entries carry a logical write counter (seq), never a timestamp. List is
// ordered by key with a binary collation so output is stable across runs.
//
// Prune removes entries whose format version differs from the running
// codec's; those archives can no longer be decoded.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
