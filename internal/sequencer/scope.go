package sequencer

import (
	"context"
	"fmt"
	"log/slog"

	"mediafx/internal/host"
)

// withArea runs fn while an area of the requested kind is the host's current
// surface. An existing area of that kind is preferred; otherwise the first
// area is switched to it. The override is popped on every exit path.
func withArea(ctx context.Context, engine host.Engine, kind host.AreaKind, logger *slog.Logger, fn func() error) (err error) {
	index, err := locateArea(ctx, engine, kind, logger)
	if err != nil {
		return err
	}
	if err := engine.PushAreaOverride(ctx, index); err != nil {
		return fmt.Errorf("override %s area: %w", kind, err)
	}
	defer func() {
		// Restore even when the caller's context is already cancelled.
		if popErr := engine.PopAreaOverride(context.WithoutCancel(ctx)); popErr != nil {
			logger.Warn("failed to restore area override", "area", string(kind), "error", popErr)
			if err == nil {
				err = fmt.Errorf("restore area override: %w", popErr)
			}
		}
	}()
	return fn()
}

func locateArea(ctx context.Context, engine host.Engine, kind host.AreaKind, logger *slog.Logger) (int, error) {
	areas, err := engine.Areas(ctx)
	if err != nil {
		return 0, fmt.Errorf("list areas: %w", err)
	}
	for _, area := range areas {
		if area.Kind == kind {
			return area.Index, nil
		}
	}
	if len(areas) == 0 {
		return 0, host.ErrNoArea
	}
	first := areas[0]
	if err := engine.SetAreaType(ctx, first.Index, kind); err != nil {
		return 0, fmt.Errorf("switch area %d to %s: %w", first.Index, kind, err)
	}
	logger.Debug("repurposed area", "index", first.Index, "from", string(first.Kind), "to", string(kind))
	return first.Index, nil
}
