package sequencer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediafx/internal/host/memhost"
	"mediafx/internal/sequencer"
)

func writeTemplate(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("BLENDER-v300"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func TestWorkspaceFixedTemplateLocation(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, filepath.Join(root, "Video_Editing", "startup.blend"))
	engine := newEngine(memhost.WithTemplateRoots(t.TempDir(), root))

	session := mustCreate(t, sequencer.NewRegistry(), engine)
	defer session.Dispose()
	if engine.Workspace() != sequencer.WorkspaceVideoEditing {
		t.Fatalf("expected workspace %q, got %q", sequencer.WorkspaceVideoEditing, engine.Workspace())
	}
}

func TestWorkspaceRecursiveSearch(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, filepath.Join(root, "4.2", "scripts", "startup", "bl_app_templates_system", "Editing", "startup.blend"))
	engine := newEngine(memhost.WithTemplateRoots(root))

	session := mustCreate(t, sequencer.NewRegistry(), engine)
	defer session.Dispose()
	if engine.Workspace() == "" {
		t.Fatal("expected workspace activated from a nested template")
	}
}

func TestWorkspaceExtraRootsAndCustomName(t *testing.T) {
	extra := t.TempDir()
	writeTemplate(t, filepath.Join(extra, "Video_Editing", "startup.blend"))
	engine := newEngine()

	session, err := sequencer.NewRegistry().Create(context.Background(), engine, nil,
		sequencer.WithWorkspaceTemplate(sequencer.WorkspaceTemplate{Workspace: "Compositing", ExtraRoots: []string{extra}}))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	defer session.Dispose()
	if engine.Workspace() != "Compositing" {
		t.Fatalf("expected custom workspace, got %q", engine.Workspace())
	}
}

func TestWorkspaceMissingTemplateIsTolerated(t *testing.T) {
	engine := newEngine(memhost.WithTemplateRoots(filepath.Join(t.TempDir(), "does-not-exist")))
	session := mustCreate(t, sequencer.NewRegistry(), engine)
	defer session.Dispose()
	if engine.Workspace() != "" {
		t.Fatalf("expected no workspace, got %q", engine.Workspace())
	}
	if _, err := session.AddMovie(context.Background(), clipPath, 1); err != nil {
		t.Fatalf("AddMovie without workspace returned error: %v", err)
	}
}

func TestWorkspaceRootListingErrorIsTolerated(t *testing.T) {
	engine := newEngine()
	engine.InjectError("TemplateRoots", memhost.ErrInjected)
	session := mustCreate(t, sequencer.NewRegistry(), engine)
	defer session.Dispose()
}
