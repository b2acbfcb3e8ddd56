package metrics

import (
	"context"
	"time"

	"mediafx/internal/host"
)

type instrumented struct {
	next host.Engine
	c    *Collector
	now  func() time.Time
}

func (e *instrumented) ResetProject(ctx context.Context) error {
	err := e.next.ResetProject(ctx)
	e.c.observe("reset_project", err)
	return err
}

func (e *instrumented) TemplateRoots(ctx context.Context) ([]string, error) {
	return e.next.TemplateRoots(ctx)
}

func (e *instrumented) ActivateWorkspace(ctx context.Context, idname, filepath string) (host.Result, error) {
	result, err := e.next.ActivateWorkspace(ctx, idname, filepath)
	e.c.observeResult("activate_workspace", result, err)
	return result, err
}

func (e *instrumented) ApplyEncoder(ctx context.Context, params host.EncoderParams) error {
	err := e.next.ApplyEncoder(ctx, params)
	e.c.observe("apply_encoder", err)
	return err
}

func (e *instrumented) Areas(ctx context.Context) ([]host.Area, error) {
	return e.next.Areas(ctx)
}

func (e *instrumented) SetAreaType(ctx context.Context, index int, kind host.AreaKind) error {
	err := e.next.SetAreaType(ctx, index, kind)
	e.c.observe("set_area_type", err)
	return err
}

func (e *instrumented) PushAreaOverride(ctx context.Context, index int) error {
	return e.next.PushAreaOverride(ctx, index)
}

func (e *instrumented) PopAreaOverride(ctx context.Context) error {
	err := e.next.PopAreaOverride(ctx)
	if err != nil {
		e.c.observe("pop_area_override", err)
	}
	return err
}

func (e *instrumented) EntryCount(ctx context.Context) (int, error) {
	return e.next.EntryCount(ctx)
}

func (e *instrumented) EntryAt(ctx context.Context, index int) (host.Entry, error) {
	return e.next.EntryAt(ctx, index)
}

func (e *instrumented) LookupEntry(ctx context.Context, name string) (host.Entry, bool, error) {
	return e.next.LookupEntry(ctx, name)
}

func (e *instrumented) AddMovie(ctx context.Context, params host.MovieParams) (host.Result, error) {
	result, err := e.next.AddMovie(ctx, params)
	e.c.observeResult("add_movie", result, err)
	if err == nil && result.IsFinished() {
		e.c.entriesAdded.WithLabelValues(string(host.KindMovie)).Inc()
	}
	return result, err
}

func (e *instrumented) AddSound(ctx context.Context, params host.SoundParams) (host.Result, error) {
	result, err := e.next.AddSound(ctx, params)
	e.c.observeResult("add_sound", result, err)
	if err == nil && result.IsFinished() {
		e.c.entriesAdded.WithLabelValues(string(host.KindSound)).Inc()
	}
	return result, err
}

func (e *instrumented) SetRenderPath(ctx context.Context, path string) error {
	err := e.next.SetRenderPath(ctx, path)
	e.c.observe("set_render_path", err)
	return err
}

func (e *instrumented) SetRangeToEntries(ctx context.Context) (host.Result, error) {
	result, err := e.next.SetRangeToEntries(ctx)
	e.c.observeResult("set_range_to_entries", result, err)
	return result, err
}

func (e *instrumented) RenderAnimation(ctx context.Context) (host.Result, error) {
	start := e.now()
	result, err := e.next.RenderAnimation(ctx)
	end := e.now()
	e.c.renderDuration.Observe(end.Sub(start).Seconds())
	e.c.observeResult("render_animation", result, err)
	if err == nil && result.IsFinished() {
		e.c.lastRender.Set(float64(end.Unix()))
	}
	return result, err
}

func (e *instrumented) SaveProject(ctx context.Context, path string) (host.Result, error) {
	result, err := e.next.SaveProject(ctx, path)
	e.c.observeResult("save_project", result, err)
	return result, err
}

func (e *instrumented) Close() error {
	return e.next.Close()
}
