// Package memhost implements host.Engine entirely in memory.
//
// The engine reproduces the host behaviours the sequencer has to cope with:
// operators that only run while a sequence editor area is overridden, entry
// tables whose indices shift when entries are removed, host-assigned entry
// names with numeric suffixes on collision, and operator results reported as
// flag sets. Media decodability is decided by registered fixtures or by a
// Prober (ffprobe during dry runs). Renders and project saves write small
// JSON documents so callers can inspect what would have been produced.
package memhost
