// Package notifications pushes render events to ntfy.
//
// NewService returns a no-op Service when no topic is configured, so callers
// publish unconditionally. Each event has a fixed title, tag set and
// priority; the payload only fills in the message.
package notifications
