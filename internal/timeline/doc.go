// Package timeline loads declarative composition manifests and applies them
// to a sequencer Session.
//
// A manifest names the render output, optional encoder overrides, and the
// movie and sound entries to place on the timeline. TOML, YAML and JSON are
// accepted, chosen by file extension. Relative source paths resolve against
// the manifest's directory.
//
// Sound entries marked audio = "auto" are probed first and skipped when the
// source carries no audio stream; everything else is handed to the host
// as-is, so an undecodable source surfaces as the host's operation failure.
package timeline
