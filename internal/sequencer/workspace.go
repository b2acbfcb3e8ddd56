package sequencer

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"mediafx/internal/host"
)

const (
	// WorkspaceVideoEditing is the workspace appended from the template.
	WorkspaceVideoEditing = "Video Editing"
	templateRelPath       = "Video_Editing/startup.blend"
	templateFileName      = "startup.blend"
)

// WorkspaceTemplate locates and activates the editing workspace.
type WorkspaceTemplate struct {
	// Workspace is the idname of the workspace to activate.
	Workspace string
	// ExtraRoots are searched after the roots reported by the host.
	ExtraRoots []string
}

func (w WorkspaceTemplate) workspace() string {
	if name := strings.TrimSpace(w.Workspace); name != "" {
		return name
	}
	return WorkspaceVideoEditing
}

// activate tries the fixed template location under every root first, then
// walks each root for a template file. It reports whether any attempt
// finished. Errors from individual attempts are logged and skipped.
func (w WorkspaceTemplate) activate(ctx context.Context, engine host.Engine, logger *slog.Logger) bool {
	roots, err := engine.TemplateRoots(ctx)
	if err != nil {
		logger.Warn("list template roots failed", "error", err)
	}
	roots = append(roots, w.ExtraRoots...)
	idname := w.workspace()

	try := func(candidate string) bool {
		result, err := engine.ActivateWorkspace(ctx, idname, candidate)
		if err != nil {
			logger.Debug("workspace activation errored", "template", candidate, "error", err)
			return false
		}
		logger.Debug("workspace activation attempted", "template", candidate, "result", result.String())
		return result.IsFinished()
	}

	for _, root := range roots {
		if try(filepath.Join(root, filepath.FromSlash(templateRelPath))) {
			logger.Info("workspace activated", "workspace", idname, "root", root)
			return true
		}
	}
	for _, root := range roots {
		for _, candidate := range findTemplates(root) {
			if ctx.Err() != nil {
				return false
			}
			if try(candidate) {
				logger.Info("workspace activated", "workspace", idname, "template", candidate)
				return true
			}
		}
	}
	logger.Warn("workspace template not found; continuing with default screen",
		"workspace", idname,
		"roots", len(roots),
	)
	return false
}

func findTemplates(root string) []string {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil
	}
	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			return nil
		}
		if !d.IsDir() && d.Name() == templateFileName {
			found = append(found, path)
		}
		return nil
	})
	return found
}
