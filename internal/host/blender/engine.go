package blender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mediafx/internal/host"
	"mediafx/internal/logging"
)

// Engine implements host.Engine over a bridge Client.
type Engine struct {
	client *Client
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
	// shutdown stops the backing process; nil for bare clients.
	shutdown func(ctx context.Context) error
	// abort kills the backing process when a call is cancelled midway.
	abort func()
}

// NewEngine wraps an established client.
func NewEngine(client *Client, logger *slog.Logger) *Engine {
	return &Engine{client: client, logger: logging.NewComponentLogger(logger, "blender")}
}

func (e *Engine) call(ctx context.Context, op string, args any) (response, error) {
	resp, err := e.client.Call(ctx, op, args)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && e.abort != nil {
		logging.WarnWithContext(e.logger, "blender call cancelled, stopping host", "host_aborted",
			logging.String("op", op),
			logging.String(logging.FieldImpact, "host state is lost; the session must be recreated"),
		)
		e.abort()
	}
	return resp, err
}

func (e *Engine) exec(ctx context.Context, op string, args any) error {
	_, err := e.call(ctx, op, args)
	return err
}

func (e *Engine) result(ctx context.Context, op string, args any) (host.Result, error) {
	resp, err := e.call(ctx, op, args)
	if err != nil {
		return nil, err
	}
	result := host.ResultOf(resp.Result...)
	if !result.IsFinished() {
		var message string
		_ = json.Unmarshal(resp.Value, &message)
		e.logger.Debug("operator did not finish",
			logging.String("op", op),
			logging.String("result", result.String()),
			logging.String("message", message),
		)
	}
	return result, nil
}

func (e *Engine) value(ctx context.Context, op string, args, out any) error {
	resp, err := e.call(ctx, op, args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Value, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", op, err)
	}
	return nil
}

// ResetProject implements host.Engine.
func (e *Engine) ResetProject(ctx context.Context) error {
	return e.exec(ctx, "reset_project", nil)
}

// TemplateRoots implements host.Engine.
func (e *Engine) TemplateRoots(ctx context.Context) ([]string, error) {
	var roots []string
	err := e.value(ctx, "template_roots", nil, &roots)
	return roots, err
}

// ActivateWorkspace implements host.Engine.
func (e *Engine) ActivateWorkspace(ctx context.Context, idname, filepath string) (host.Result, error) {
	return e.result(ctx, "activate_workspace", map[string]string{"idname": idname, "filepath": filepath})
}

// ApplyEncoder implements host.Engine.
func (e *Engine) ApplyEncoder(ctx context.Context, params host.EncoderParams) error {
	return e.exec(ctx, "apply_encoder", params)
}

// Areas implements host.Engine.
func (e *Engine) Areas(ctx context.Context) ([]host.Area, error) {
	var areas []host.Area
	err := e.value(ctx, "areas", nil, &areas)
	return areas, err
}

// SetAreaType implements host.Engine.
func (e *Engine) SetAreaType(ctx context.Context, index int, kind host.AreaKind) error {
	return e.exec(ctx, "set_area_type", map[string]any{"index": index, "type": kind})
}

// PushAreaOverride implements host.Engine.
func (e *Engine) PushAreaOverride(ctx context.Context, index int) error {
	return e.exec(ctx, "push_area_override", map[string]int{"index": index})
}

// PopAreaOverride implements host.Engine.
func (e *Engine) PopAreaOverride(ctx context.Context) error {
	return e.exec(ctx, "pop_area_override", nil)
}

// EntryCount implements host.Engine.
func (e *Engine) EntryCount(ctx context.Context) (int, error) {
	var n int
	err := e.value(ctx, "entry_count", nil, &n)
	return n, err
}

// EntryAt implements host.Engine.
func (e *Engine) EntryAt(ctx context.Context, index int) (host.Entry, error) {
	var entry host.Entry
	err := e.value(ctx, "entry_at", map[string]int{"index": index}, &entry)
	return entry, err
}

// LookupEntry implements host.Engine.
func (e *Engine) LookupEntry(ctx context.Context, name string) (host.Entry, bool, error) {
	var reply struct {
		Found bool       `json:"found"`
		Entry host.Entry `json:"entry"`
	}
	if err := e.value(ctx, "lookup_entry", map[string]string{"name": name}, &reply); err != nil {
		return host.Entry{}, false, err
	}
	return reply.Entry, reply.Found, nil
}

// AddMovie implements host.Engine.
func (e *Engine) AddMovie(ctx context.Context, params host.MovieParams) (host.Result, error) {
	return e.result(ctx, "add_movie", params)
}

// AddSound implements host.Engine.
func (e *Engine) AddSound(ctx context.Context, params host.SoundParams) (host.Result, error) {
	return e.result(ctx, "add_sound", params)
}

// SetRenderPath implements host.Engine.
func (e *Engine) SetRenderPath(ctx context.Context, path string) error {
	return e.exec(ctx, "set_render_path", map[string]string{"path": path})
}

// SetRangeToEntries implements host.Engine.
func (e *Engine) SetRangeToEntries(ctx context.Context) (host.Result, error) {
	return e.result(ctx, "set_range_to_entries", nil)
}

// RenderAnimation implements host.Engine.
func (e *Engine) RenderAnimation(ctx context.Context) (host.Result, error) {
	return e.result(ctx, "render_animation", nil)
}

// SaveProject implements host.Engine.
func (e *Engine) SaveProject(ctx context.Context, path string) (host.Result, error) {
	return e.result(ctx, "save_project", map[string]string{"path": path})
}

// Close asks the bridge to quit and stops the backing process. Further
// calls fail.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
		defer cancel()
		if _, err := e.client.Call(ctx, "quit", nil); err != nil && !errors.Is(err, ErrBridgeClosed) {
			e.logger.Debug("bridge quit not acknowledged", logging.Error(err))
		}
		if e.shutdown != nil {
			e.closeErr = e.shutdown(ctx)
		}
	})
	return e.closeErr
}

var _ host.Engine = (*Engine)(nil)
