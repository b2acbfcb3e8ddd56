package memhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediafx/internal/host"
	"mediafx/internal/logging"
)

const maxChannel = 128

var defaultAreas = []host.AreaKind{host.AreaView3D, host.AreaOutliner, host.AreaProperties}

var editingAreas = []host.AreaKind{host.AreaSequenceEditor, host.AreaSequenceEditor, host.AreaProperties}

// Engine is an in-memory host.Engine. It is safe for concurrent use, though
// the sequencer drives it from one goroutine.
type Engine struct {
	mu sync.Mutex

	logger       *slog.Logger
	prober       Prober
	media        map[string]Media
	roots        []string
	initialAreas []host.AreaKind

	entries    []host.Entry
	areas      []host.AreaKind
	overrides  []int
	encoder    host.EncoderParams
	renderPath string
	workspace  string
	rangeStart int
	rangeEnd   int
	renders    []string
	resets     int
	injected   map[string]error
	closed     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProber decides decodability for paths without a registered fixture.
func WithProber(p Prober) Option {
	return func(e *Engine) { e.prober = p }
}

// WithMedia registers a decodable source at path.
func WithMedia(path string, media Media) Option {
	return func(e *Engine) { e.media[cleanPath(path)] = media }
}

// WithTemplateRoots sets the directories reported by TemplateRoots.
func WithTemplateRoots(roots ...string) Option {
	return func(e *Engine) { e.roots = append([]string(nil), roots...) }
}

// WithAreas sets the areas present after a project reset. An empty list
// models a window without any areas.
func WithAreas(kinds ...host.AreaKind) Option {
	return func(e *Engine) { e.initialAreas = append([]host.AreaKind{}, kinds...) }
}

// New constructs an Engine holding an empty project.
func New(opts ...Option) *Engine {
	e := &Engine{
		media:        make(map[string]Media),
		initialAreas: defaultAreas,
		injected:     make(map[string]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "memhost")
	e.resetLocked()
	return e
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (e *Engine) resetLocked() {
	e.entries = nil
	e.areas = append([]host.AreaKind(nil), e.initialAreas...)
	e.overrides = nil
	e.encoder = host.EncoderParams{}
	e.renderPath = ""
	e.workspace = ""
	e.rangeStart, e.rangeEnd = 1, 250
}

// check reports the closed state and consumes an injected failure for op.
func (e *Engine) check(op string) error {
	if e.closed {
		return host.ErrClosed
	}
	if err, ok := e.injected[op]; ok {
		delete(e.injected, op)
		return err
	}
	return nil
}

func (e *Engine) requireEditor(op string) error {
	if len(e.overrides) == 0 || e.areas[e.overrides[len(e.overrides)-1]] != host.AreaSequenceEditor {
		return fmt.Errorf("%s: %w", op, host.ErrContextIncorrect)
	}
	return nil
}

// ResetProject implements host.Engine.
func (e *Engine) ResetProject(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("ResetProject"); err != nil {
		return err
	}
	e.resetLocked()
	e.resets++
	e.logger.Debug("project reset")
	return nil
}

// TemplateRoots implements host.Engine.
func (e *Engine) TemplateRoots(context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("TemplateRoots"); err != nil {
		return nil, err
	}
	return append([]string(nil), e.roots...), nil
}

// ActivateWorkspace implements host.Engine. A template finishes when it is
// an existing file named startup.blend.
func (e *Engine) ActivateWorkspace(_ context.Context, idname, file string) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("ActivateWorkspace"); err != nil {
		return nil, err
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() || filepath.Base(file) != "startup.blend" {
		return host.CancelledResult(), nil
	}
	e.workspace = idname
	e.areas = append([]host.AreaKind(nil), editingAreas...)
	e.overrides = nil
	return host.FinishedResult(), nil
}

// ApplyEncoder implements host.Engine.
func (e *Engine) ApplyEncoder(_ context.Context, params host.EncoderParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("ApplyEncoder"); err != nil {
		return err
	}
	e.encoder = params
	return nil
}

// Areas implements host.Engine.
func (e *Engine) Areas(context.Context) ([]host.Area, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("Areas"); err != nil {
		return nil, err
	}
	areas := make([]host.Area, len(e.areas))
	for i, kind := range e.areas {
		areas[i] = host.Area{Index: i, Kind: kind}
	}
	return areas, nil
}

// SetAreaType implements host.Engine.
func (e *Engine) SetAreaType(_ context.Context, index int, kind host.AreaKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("SetAreaType"); err != nil {
		return err
	}
	if index < 0 || index >= len(e.areas) {
		return fmt.Errorf("area %d: %w", index, host.ErrIndexOutOfRange)
	}
	e.areas[index] = kind
	return nil
}

// PushAreaOverride implements host.Engine.
func (e *Engine) PushAreaOverride(_ context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("PushAreaOverride"); err != nil {
		return err
	}
	if index < 0 || index >= len(e.areas) {
		return fmt.Errorf("area %d: %w", index, host.ErrIndexOutOfRange)
	}
	e.overrides = append(e.overrides, index)
	return nil
}

// PopAreaOverride implements host.Engine.
func (e *Engine) PopAreaOverride(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("PopAreaOverride"); err != nil {
		return err
	}
	if len(e.overrides) == 0 {
		return host.ErrNoOverride
	}
	e.overrides = e.overrides[:len(e.overrides)-1]
	return nil
}

// EntryCount implements host.Engine.
func (e *Engine) EntryCount(context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("EntryCount"); err != nil {
		return 0, err
	}
	return len(e.entries), nil
}

// EntryAt implements host.Engine.
func (e *Engine) EntryAt(_ context.Context, index int) (host.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("EntryAt"); err != nil {
		return host.Entry{}, err
	}
	if index < 0 || index >= len(e.entries) {
		return host.Entry{}, fmt.Errorf("entry %d: %w", index, host.ErrIndexOutOfRange)
	}
	return e.entries[index], nil
}

// LookupEntry implements host.Engine.
func (e *Engine) LookupEntry(_ context.Context, name string) (host.Entry, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("LookupEntry"); err != nil {
		return host.Entry{}, false, err
	}
	if i := e.indexLocked(name); i >= 0 {
		return e.entries[i], true, nil
	}
	return host.Entry{}, false, nil
}

func (e *Engine) indexLocked(name string) int {
	for i, entry := range e.entries {
		if entry.Name == name {
			return i
		}
	}
	return -1
}

// decode resolves media for path. Callers hold the engine lock.
func (e *Engine) decode(ctx context.Context, path string) (Media, bool) {
	if media, ok := e.media[cleanPath(path)]; ok {
		return media, true
	}
	if e.prober == nil {
		return Media{}, false
	}
	media, err := e.prober.Probe(ctx, path)
	if err != nil {
		e.logger.Debug("probe failed", "path", path, "error", err)
		return Media{}, false
	}
	return media, true
}

func (e *Engine) appendLocked(entry host.Entry) host.Entry {
	entry.Name = uniqueName(nameFor(entry.Filepath), func(candidate string) bool {
		return e.indexLocked(candidate) >= 0
	})
	if entry.Channel < 1 {
		entry.Channel = 1
	}
	if entry.Channel > maxChannel {
		entry.Channel = maxChannel
	}
	e.entries = append(e.entries, entry)
	return entry
}

// AddMovie implements host.Engine.
func (e *Engine) AddMovie(ctx context.Context, params host.MovieParams) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("AddMovie"); err != nil {
		return nil, err
	}
	if err := e.requireEditor("sequencer.movie_strip_add"); err != nil {
		return nil, err
	}
	media, ok := e.decode(ctx, params.Filepath)
	if !ok || !media.HasVideo {
		e.logger.Debug("movie could not be loaded", "path", params.Filepath)
		return host.CancelledResult(), nil
	}
	frames := media.Frames
	if frames < 1 {
		frames = 1
	}
	entry := e.appendLocked(host.Entry{
		Kind:          host.KindMovie,
		Channel:       params.Channel,
		FrameStart:    params.FrameStart,
		FrameDuration: frames,
		Filepath:      params.Filepath,
		Width:         media.Width,
		Height:        media.Height,
		FitMethod:     params.FitMethod,
	})
	e.logger.Debug("movie added", "entry", entry.Name, "channel", entry.Channel)
	return host.FinishedResult(), nil
}

// AddSound implements host.Engine.
func (e *Engine) AddSound(ctx context.Context, params host.SoundParams) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("AddSound"); err != nil {
		return nil, err
	}
	if err := e.requireEditor("sequencer.sound_strip_add"); err != nil {
		return nil, err
	}
	media, ok := e.decode(ctx, params.Filepath)
	if !ok || !media.HasAudio {
		e.logger.Debug("sound could not be loaded", "path", params.Filepath)
		return host.CancelledResult(), nil
	}
	frames := media.Frames
	if frames < 1 {
		frames = 1
	}
	entry := e.appendLocked(host.Entry{
		Kind:          host.KindSound,
		Channel:       params.Channel,
		FrameStart:    params.FrameStart,
		FrameDuration: frames,
		Filepath:      params.Filepath,
		Mono:          params.Mono,
	})
	e.logger.Debug("sound added", "entry", entry.Name, "channel", entry.Channel)
	return host.FinishedResult(), nil
}

// SetRenderPath implements host.Engine.
func (e *Engine) SetRenderPath(_ context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("SetRenderPath"); err != nil {
		return err
	}
	e.renderPath = path
	return nil
}

// SetRangeToEntries implements host.Engine. An empty project cancels.
func (e *Engine) SetRangeToEntries(context.Context) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("SetRangeToEntries"); err != nil {
		return nil, err
	}
	if err := e.requireEditor("sequencer.set_range_to_strips"); err != nil {
		return nil, err
	}
	if len(e.entries) == 0 {
		return host.CancelledResult(), nil
	}
	start, end := e.entries[0].FrameStart, e.entries[0].FrameStart+e.entries[0].FrameDuration
	for _, entry := range e.entries[1:] {
		start = min(start, entry.FrameStart)
		end = max(end, entry.FrameStart+entry.FrameDuration)
	}
	e.rangeStart, e.rangeEnd = start, end-1
	return host.FinishedResult(), nil
}

type renderDocument struct {
	Encoder    host.EncoderParams `json:"encoder"`
	FrameStart int                `json:"frame_start"`
	FrameEnd   int                `json:"frame_end"`
	Workspace  string             `json:"workspace,omitempty"`
	Entries    []host.Entry       `json:"entries"`
}

func (e *Engine) documentLocked() renderDocument {
	return renderDocument{
		Encoder:    e.encoder,
		FrameStart: e.rangeStart,
		FrameEnd:   e.rangeEnd,
		Workspace:  e.workspace,
		Entries:    append([]host.Entry{}, e.entries...),
	}
}

func writeDocument(path string, doc renderDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderAnimation implements host.Engine. The output is a JSON description
// of the frame range, encoder and entries.
func (e *Engine) RenderAnimation(context.Context) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("RenderAnimation"); err != nil {
		return nil, err
	}
	if err := e.requireEditor("render.render"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.renderPath) == "" {
		return host.CancelledResult(), nil
	}
	if err := writeDocument(e.renderPath, e.documentLocked()); err != nil {
		e.logger.Warn("render output not written", "path", e.renderPath, "error", err)
		return host.CancelledResult(), nil
	}
	e.renders = append(e.renders, e.renderPath)
	return host.FinishedResult(), nil
}

// SaveProject implements host.Engine.
func (e *Engine) SaveProject(_ context.Context, path string) (host.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("SaveProject"); err != nil {
		return nil, err
	}
	if err := writeDocument(path, e.documentLocked()); err != nil {
		e.logger.Warn("project not saved", "path", path, "error", err)
		return host.CancelledResult(), nil
	}
	return host.FinishedResult(), nil
}

// Close implements host.Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// InjectError makes the next call of the named Engine method return err.
func (e *Engine) InjectError(method string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.injected, method)
		return
	}
	e.injected[method] = err
}

// RegisterMedia adds a decodable source after construction.
func (e *Engine) RegisterMedia(path string, media Media) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.media[cleanPath(path)] = media
}

// RemoveEntry deletes the named entry, shifting later indices down.
func (e *Engine) RemoveEntry(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(name)
	if i < 0 {
		return false
	}
	e.entries = append(e.entries[:i], e.entries[i+1:]...)
	return true
}

// RenameEntry changes an entry name the way a user edit in the host would.
func (e *Engine) RenameEntry(from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(from)
	if i < 0 {
		return fmt.Errorf("entry %q not found", from)
	}
	if e.indexLocked(to) >= 0 {
		return fmt.Errorf("entry %q already exists", to)
	}
	e.entries[i].Name = to
	return nil
}

// ReplaceEntry swaps the named entry for one of a different kind under the
// same name.
func (e *Engine) ReplaceEntry(name string, kind host.EntryKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(name)
	if i < 0 {
		return false
	}
	e.entries[i] = host.Entry{Name: name, Kind: kind, Channel: e.entries[i].Channel, FrameDuration: 1}
	return true
}

// Clear removes every entry.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}

// OverrideDepth returns the number of area overrides currently pushed.
func (e *Engine) OverrideDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.overrides)
}

// AreaKinds returns the current area kinds in index order.
func (e *Engine) AreaKinds() []host.AreaKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]host.AreaKind(nil), e.areas...)
}

// Encoder returns the parameters applied by ApplyEncoder.
func (e *Engine) Encoder() host.EncoderParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encoder
}

// Workspace returns the activated workspace idname, if any.
func (e *Engine) Workspace() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workspace
}

// FrameRange returns the scene frame range.
func (e *Engine) FrameRange() (start, end int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rangeStart, e.rangeEnd
}

// Renders returns the output paths of finished renders.
func (e *Engine) Renders() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.renders...)
}

// Resets returns how many times ResetProject ran.
func (e *Engine) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

var _ host.Engine = (*Engine)(nil)

// ErrInjected is a convenience error for InjectError.
var ErrInjected = errors.New("memhost: injected failure")
