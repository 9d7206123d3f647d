// Package catalog defines the persistent data model shared across the
// application: tracked people and their film projects.
//
// Matching is always keyed by the external TMDB identifier, never by
// title or by object identity. People are keyed internally by a
// normalized form of their display name so the same person appearing in
// both the director and actor watch lists collapses into one record.
package catalog
