package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies the sequencer session a line belongs to.
	FieldSessionID = "session_id"
	// FieldRenderID identifies a journal render record.
	FieldRenderID = "render_id"
	// FieldManifest is the timeline manifest being rendered.
	FieldManifest = "manifest"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	renderIDKey
	manifestKey
)

// WithSessionID returns a context carrying the session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithRenderID returns a context carrying the journal render identifier.
func WithRenderID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, renderIDKey, id)
}

// WithManifest returns a context carrying the manifest path.
func WithManifest(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, manifestKey, path)
}

// SessionIDFromContext returns the session identifier, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if path, ok := ctx.Value(manifestKey).(string); ok && path != "" {
		fields = append(fields, slog.String(FieldManifest, path))
	}
	if id, ok := SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if id, ok := ctx.Value(renderIDKey).(int64); ok && id > 0 {
		fields = append(fields, slog.Int64(FieldRenderID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
