// Package logging assembles structured slog loggers for mediafx.
//
// It owns the console and JSON handlers, parses levels and output targets,
// and exposes context helpers so code running inside a session or render
// automatically tags log lines with the session and render identifiers.
// A no-op logger is provided for tests and for wiring code that must not
// fail when no logger was supplied.
package logging
