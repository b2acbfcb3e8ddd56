// Package config loads, normalizes, and validates mediafx configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the MEDIAFX_BLENDER environment fallback for the
// Blender executable. Callers receive sanitized paths and canonical engine
// and log format names, plus validation errors that name the offending key.
package config
