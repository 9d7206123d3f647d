// Package state persists the tracker's ground truth: tracked people,
// the upcoming project set, and the released historical set.
//
// Two backends implement the same Store contract. The SQLite backend
// keeps everything in one database with a schema version guard; the JSON
// backend keeps one document and writes it atomically via a temp file
// rename. A cold start (no prior state) loads empty collections, never
// an error. Both round-trip the catalog types losslessly.
package state
