package sequencer

import (
	"context"
	"fmt"

	"mediafx/internal/host"
)

// Handle is a stable reference to an entry created by a Session. The set of
// implementations is closed: *Movie and *Sound.
type Handle interface {
	// Name is the entry name assigned by the host at creation. It never changes.
	Name() string
	Kind() host.EntryKind
	Channel(ctx context.Context) (int, error)
	FrameStart(ctx context.Context) (int, error)
	// Duration is the entry length in frames.
	Duration(ctx context.Context) (int, error)
	Source(ctx context.Context) (string, error)
	// Snapshot returns a copy of the live entry.
	Snapshot(ctx context.Context) (host.Entry, error)

	sealed()
}

type strip struct {
	name    string
	kind    host.EntryKind
	session *Session
	gone    bool
}

func (h *strip) Name() string { return h.name }

func (h *strip) Kind() host.EntryKind { return h.kind }

func (h *strip) sealed() {}

// resolve looks the entry up again. Nothing about the entry is cached between
// calls; once the name fails to resolve the handle stays invalid.
func (h *strip) resolve(ctx context.Context) (host.Entry, error) {
	if h.gone {
		return host.Entry{}, &HandleError{Name: h.name, Reason: "entry no longer exists"}
	}
	if h.session == nil || !h.session.Active() {
		return host.Entry{}, &HandleError{Name: h.name, Reason: "session is not active"}
	}
	entry, ok, err := h.session.engine.LookupEntry(ctx, h.name)
	if err != nil {
		return host.Entry{}, err
	}
	if !ok {
		h.gone = true
		return host.Entry{}, &HandleError{Name: h.name, Reason: "entry no longer exists"}
	}
	if entry.Kind != h.kind {
		h.gone = true
		return host.Entry{}, &HandleError{Name: h.name, Reason: fmt.Sprintf("entry is now a %s strip", entry.Kind)}
	}
	return entry, nil
}

func (h *strip) Snapshot(ctx context.Context) (host.Entry, error) {
	return h.resolve(ctx)
}

func (h *strip) Channel(ctx context.Context) (int, error) {
	entry, err := h.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return entry.Channel, nil
}

func (h *strip) FrameStart(ctx context.Context) (int, error) {
	entry, err := h.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return entry.FrameStart, nil
}

func (h *strip) Duration(ctx context.Context) (int, error) {
	entry, err := h.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return entry.FrameDuration, nil
}

func (h *strip) Source(ctx context.Context) (string, error) {
	entry, err := h.resolve(ctx)
	if err != nil {
		return "", err
	}
	return entry.Filepath, nil
}

// Movie is a handle to a movie entry.
type Movie struct {
	strip
}

// SourceSize returns the decoded frame size of the movie source.
func (m *Movie) SourceSize(ctx context.Context) (width, height int, err error) {
	entry, err := m.resolve(ctx)
	if err != nil {
		return 0, 0, err
	}
	return entry.Width, entry.Height, nil
}

// FitMethod returns how the source is scaled into the output frame.
func (m *Movie) FitMethod(ctx context.Context) (string, error) {
	entry, err := m.resolve(ctx)
	if err != nil {
		return "", err
	}
	return entry.FitMethod, nil
}

// Sound is a handle to a sound entry.
type Sound struct {
	strip
}

// Mono reports whether the sound was imported downmixed to mono.
func (s *Sound) Mono(ctx context.Context) (bool, error) {
	entry, err := s.resolve(ctx)
	if err != nil {
		return false, err
	}
	return entry.Mono, nil
}

func newMovie(s *Session, name string) *Movie {
	return &Movie{strip: strip{name: name, kind: host.KindMovie, session: s}}
}

func newSound(s *Session, name string) *Sound {
	return &Sound{strip: strip{name: name, kind: host.KindSound, session: s}}
}

var (
	_ Handle = (*Movie)(nil)
	_ Handle = (*Sound)(nil)
)
