// Package sequencer owns a host editing engine for the duration of one
// composition session and hands out stable handles to the entries it creates.
//
// A Registry admits at most one active Session. Creating a Session resets the
// host to an empty project, activates the video editing workspace when a
// template can be found, and applies the encoder settings. Track operations
// (AddMovie, AddSound, Encode) run inside a scoped area override so the host
// sees the sequence editor as the current surface; the override is always
// restored, including on failure.
//
// Movie and Sound handles store only the entry name the host assigned at
// creation. Every property read re-resolves that name against the live entry
// table, because host indices shift when entries are removed or reordered. A
// handle whose entry is gone, or whose Session is no longer active, fails with
// ErrInvalidHandle from then on.
//
// Errors produced by this package wrap ErrSequencer through one of three
// kinds: ErrLifecycle, ErrOperation (carried by *OpsError with the host's raw
// result set), and ErrInvalidHandle (carried by *HandleError). Host transport
// and I/O errors are returned as-is.
package sequencer
