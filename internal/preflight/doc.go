// Package preflight provides readiness checks run before a render and by
// `mediafx doctor`.
//
// RunAll covers the filesystem: state, log and output directories, the
// archive directory when archiving is enabled, configured template roots
// and the session lock file. CheckSystemDeps covers external binaries.
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
