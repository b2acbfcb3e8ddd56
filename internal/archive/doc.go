// Package archive transcodes finished renders into compact AV1 copies with
// the Drapto library.
//
// The host writes renders with whatever codec the encoder settings name,
// usually a large intermediate. When archiving is enabled, the render
// command hands each successful output to an Archiver, which writes
// <stem>.mkv into the archive directory and logs Drapto's progress through
// slog.
package archive
