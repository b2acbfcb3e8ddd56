// Package ffprobe inspects media sources through the ffprobe binary.
//
// Inspect runs ffprobe and Parse decodes its JSON report into a Result.
// The helpers on Result answer what the composition layer needs to know
// about a source before it reaches the host: which streams it carries,
// its picture size, its native frame rate and how many frames it holds.
// Runner binds a binary path so callers can depend on a small interface.
package ffprobe
