// Package services defines shared utilities consumed by the run
// orchestration and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify
//     failures from external sources (unavailable, not found, malformed
//     payload) and from the persistence layer.
//   - Context helpers that stamp run and person identifiers for logging.
//
// Per-person and per-project failures are isolated and skipped; only
// persistence failures abort a run. Use IsFatal to make that call.
package services
