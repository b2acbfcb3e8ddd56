package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediafx/internal/host"
	"mediafx/internal/logging"
)

// Fit methods accepted by AddMovie.
const (
	FitMethodFit      = "FIT"
	FitMethodFill     = "FILL"
	FitMethodStretch  = "STRETCH"
	FitMethodOriginal = "ORIGINAL"
)

const (
	opMovieStripAdd   = "sequencer.movie_strip_add"
	opSoundStripAdd   = "sequencer.sound_strip_add"
	opSetRangeToStrip = "sequencer.set_range_to_strips"
	opRenderAnimation = "render.render"
	opSaveMainfile    = "wm.save_as_mainfile"
)

// Session owns the host project while it is the registry's active session.
type Session struct {
	id        string
	registry  *Registry
	engine    host.Engine
	settings  EncoderSettings
	template  WorkspaceTemplate
	logger    *slog.Logger
	lock      *flock.Flock
	createdAt time.Time
}

// Option configures Session creation.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkspaceTemplate overrides the workspace template search.
func WithWorkspaceTemplate(template WorkspaceTemplate) Option {
	return func(s *Session) {
		s.template = template
	}
}

// WithSessionID sets the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Session) {
		if id = strings.TrimSpace(id); id != "" {
			s.id = id
		}
	}
}

// Create claims the registry for a new Session, resets the host to an empty
// project, activates the editing workspace when a template can be found, and
// applies the encoder settings (defaults when nil). It fails with
// ErrLifecycle while another Session of r is active.
func (r *Registry) Create(ctx context.Context, engine host.Engine, settings *EncoderSettings, opts ...Option) (*Session, error) {
	if engine == nil {
		return nil, errors.New("sequencer: host engine is required")
	}
	s := &Session{
		id:        uuid.NewString(),
		registry:  r,
		engine:    engine,
		logger:    r.logger,
		createdAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.String(logging.FieldSessionID, s.id))

	if err := r.claim(s); err != nil {
		return nil, err
	}
	created := false
	defer func() {
		if !created {
			r.release(s)
		}
	}()

	resolved := DefaultEncoderSettings()
	if settings != nil {
		resolved = settings.WithDefaults()
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	s.settings = resolved

	if err := engine.ResetProject(ctx); err != nil {
		return nil, fmt.Errorf("reset project: %w", err)
	}
	s.template.activate(ctx, engine, s.logger)
	if err := engine.ApplyEncoder(ctx, resolved.params()); err != nil {
		return nil, fmt.Errorf("apply encoder settings: %w", err)
	}

	created = true
	s.logger.Info("session created",
		"resolution", fmt.Sprintf("%dx%d", resolved.ResolutionX, resolved.ResolutionY),
		"fps", fmt.Sprintf("%d/%d", resolved.FPS, resolved.FPSBase),
		"format", resolved.Format,
		"codec", resolved.Codec,
		"audio_codec", resolved.AudioCodec,
	)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Settings returns the encoder settings applied at creation.
func (s *Session) Settings() EncoderSettings { return s.settings }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Active reports whether s is its registry's active session.
func (s *Session) Active() bool {
	return s != nil && s.registry != nil && s.registry.isActive(s)
}

// ensureActive applies the same liveness rule the handle resolver uses, so
// a disposed session fails before any host state is touched.
func (s *Session) ensureActive() error {
	if !s.Active() {
		return &HandleError{Reason: fmt.Sprintf("session %s is not active", s.id)}
	}
	return nil
}

// EntryOption customises AddMovie and AddSound.
type EntryOption func(*entryOptions)

type entryOptions struct {
	frameStart int
	fitMethod  string
	mono       bool
}

// WithFrameStart places the entry at the given frame (default 0).
func WithFrameStart(frame int) EntryOption {
	return func(o *entryOptions) { o.frameStart = frame }
}

// WithFitMethod sets how a movie is scaled into the frame (default FIT).
// Sound entries ignore it.
func WithFitMethod(method string) EntryOption {
	return func(o *entryOptions) { o.fitMethod = strings.ToUpper(strings.TrimSpace(method)) }
}

// WithMono downmixes a sound entry to mono. Movie entries ignore it.
func WithMono(mono bool) EntryOption {
	return func(o *entryOptions) { o.mono = mono }
}

func buildEntryOptions(opts []EntryOption) entryOptions {
	o := entryOptions{fitMethod: FitMethodFit}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fitMethod == "" {
		o.fitMethod = FitMethodFit
	}
	return o
}

// ValidFitMethod reports whether method is accepted by AddMovie.
func ValidFitMethod(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case FitMethodFit, FitMethodFill, FitMethodStretch, FitMethodOriginal:
		return true
	}
	return false
}

func validateEntryArgs(path string, channel int) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("source path is required")
	}
	if channel < 0 {
		return "", fmt.Errorf("channel must be non-negative, got %d", channel)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	return abs, nil
}

// AddMovie imports a movie file onto channel. Audio is never imported with
// the movie; use AddSound for that. A source the host cannot load yields an
// *OpsError and no handle.
func (s *Session) AddMovie(ctx context.Context, path string, channel int, opts ...EntryOption) (*Movie, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	abs, err := validateEntryArgs(path, channel)
	if err != nil {
		return nil, err
	}
	o := buildEntryOptions(opts)
	if !ValidFitMethod(o.fitMethod) {
		return nil, fmt.Errorf("unknown fit method %q", o.fitMethod)
	}
	params := host.MovieParams{
		Filepath:           abs,
		RelativePath:       false,
		ShowMultiview:      false,
		FrameStart:         o.frameStart,
		Channel:            channel,
		FitMethod:          o.fitMethod,
		SetViewTransform:   false,
		AdjustPlaybackRate: true,
		UseFramerate:       false,
		Overlap:            true,
		Sound:              false,
	}

	var movie *Movie
	err = withArea(ctx, s.engine, host.AreaSequenceEditor, s.logger, func() error {
		name, err := s.insert(ctx, host.KindMovie, func() (host.Result, error) {
			return s.engine.AddMovie(ctx, params)
		}, opMovieStripAdd, "failed to load movie")
		if err != nil {
			return err
		}
		movie = newMovie(s, name)
		return nil
	})
	if err != nil {
		s.logger.Warn("movie import failed", "source", abs, "channel", channel, "error", err)
		return nil, err
	}
	s.logger.Info("movie added", "entry", movie.Name(), "channel", channel, "frame_start", o.frameStart)
	return movie, nil
}

// AddSound imports an audio track onto channel. A source without decodable
// audio yields an *OpsError and no handle.
func (s *Session) AddSound(ctx context.Context, path string, channel int, opts ...EntryOption) (*Sound, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	abs, err := validateEntryArgs(path, channel)
	if err != nil {
		return nil, err
	}
	o := buildEntryOptions(opts)
	params := host.SoundParams{
		Filepath:     abs,
		RelativePath: false,
		FrameStart:   o.frameStart,
		Channel:      channel,
		Overlap:      true,
		Mono:         o.mono,
	}

	var sound *Sound
	err = withArea(ctx, s.engine, host.AreaSequenceEditor, s.logger, func() error {
		name, err := s.insert(ctx, host.KindSound, func() (host.Result, error) {
			return s.engine.AddSound(ctx, params)
		}, opSoundStripAdd, "failed to load sound")
		if err != nil {
			return err
		}
		sound = newSound(s, name)
		return nil
	})
	if err != nil {
		s.logger.Warn("sound import failed", "source", abs, "channel", channel, "error", err)
		return nil, err
	}
	s.logger.Info("sound added", "entry", sound.Name(), "channel", channel, "frame_start", o.frameStart)
	return sound, nil
}

// insert runs an import operator and returns the name of the entry it
// appended. The new entry is found at the table size recorded beforehand.
func (s *Session) insert(ctx context.Context, kind host.EntryKind, op func() (host.Result, error), operator, message string) (string, error) {
	index, err := s.engine.EntryCount(ctx)
	if err != nil {
		return "", fmt.Errorf("count entries: %w", err)
	}
	result, err := op()
	if err != nil {
		return "", err
	}
	if err := checkResult(operator, result, message); err != nil {
		return "", err
	}
	entry, err := s.engine.EntryAt(ctx, index)
	if err != nil {
		return "", fmt.Errorf("locate new entry at %d: %w", index, err)
	}
	if entry.Kind != kind {
		return "", fmt.Errorf("new entry %q is a %s strip, expected %s", entry.Name, entry.Kind, kind)
	}
	return entry.Name, nil
}

// Entries returns handles for every movie and sound entry currently in the
// project, in table order.
func (s *Session) Entries(ctx context.Context) ([]Handle, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	count, err := s.engine.EntryCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	handles := make([]Handle, 0, count)
	for i := 0; i < count; i++ {
		entry, err := s.engine.EntryAt(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("read entry %d: %w", i, err)
		}
		switch entry.Kind {
		case host.KindMovie:
			handles = append(handles, newMovie(s, entry.Name))
		case host.KindSound:
			handles = append(handles, newSound(s, entry.Name))
		}
	}
	return handles, nil
}

// Encode renders the whole timeline to outputPath with the session's
// encoder settings. It blocks until the host finishes rendering.
func (s *Session) Encode(ctx context.Context, outputPath string) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return errors.New("output path is required")
	}
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	started := time.Now()
	err = withArea(ctx, s.engine, host.AreaSequenceEditor, s.logger, func() error {
		if err := s.engine.SetRenderPath(ctx, abs); err != nil {
			return fmt.Errorf("set render path: %w", err)
		}
		result, err := s.engine.SetRangeToEntries(ctx)
		if err != nil {
			return err
		}
		if err := checkResult(opSetRangeToStrip, result, "failed to set sequencer range"); err != nil {
			return err
		}
		result, err = s.engine.RenderAnimation(ctx)
		if err != nil {
			return err
		}
		return checkResult(opRenderAnimation, result, "failed to render")
	})
	if err != nil {
		s.logger.Warn("encode failed", "output", abs, "error", err)
		return err
	}
	s.logger.Info("encode finished", "output", abs, "duration", time.Since(started).Round(time.Millisecond))
	return nil
}

// SaveDebugState writes the full host project to outputPath for inspection
// in the host application.
func (s *Session) SaveDebugState(ctx context.Context, outputPath string) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return errors.New("output path is required")
	}
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	s.template.activate(ctx, s.engine, s.logger)
	result, err := s.engine.SaveProject(ctx, abs)
	if err != nil {
		return err
	}
	if err := checkResult(opSaveMainfile, result, "failed to save project"); err != nil {
		return err
	}
	s.logger.Info("project saved", "path", abs)
	return nil
}

// Dispose releases the registry. It fails with ErrLifecycle unless s is the
// active session; handles created by s are invalid afterwards.
func (s *Session) Dispose() error {
	if s == nil || s.registry == nil {
		return lifecycleError("session was never created")
	}
	if !s.registry.release(s) {
		return lifecycleError("session %s already disposed", s.id)
	}
	s.logger.Info("session disposed", "lifetime", time.Since(s.createdAt).Round(time.Millisecond))
	return nil
}
