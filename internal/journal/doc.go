// Package journal records render history in SQLite.
//
// Each sequencer session gets a row holding its encoder settings, the
// entries it composed, and one row per render attempt with its outcome.
// The `mediafx history` command reads it back. The schema is versioned; a
// database written by an incompatible version is rejected with
// ErrSchemaMismatch rather than migrated.
package journal
