package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"mediafx/internal/config"
	"mediafx/internal/preflight"
	"mediafx/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if preflight.CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
	if preflight.CheckTemplateRoot(f).Passed {
		t.Fatal("expected template root failure for file path")
	}
}

func TestCheckSessionLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")
	if result := preflight.CheckSessionLock(context.Background(), path); !result.Passed {
		t.Fatalf("expected free lock, got %s", result.Detail)
	}

	holder := flock.New(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	if result := preflight.CheckSessionLock(context.Background(), path); result.Passed {
		t.Fatal("expected held lock to fail the check")
	}
}

func TestRunAllCoversConfiguredPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	cfg.Archive.Enabled = true
	cfg.Archive.OutputDir = filepath.Join(testsupport.BaseDir(cfg), "missing-archive")
	cfg.Host.TemplateRoots = []string{t.TempDir()}

	results := preflight.RunAll(context.Background(), cfg)
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = r.Passed
	}
	for _, name := range []string{"State directory", "Log directory", "Output directory", "Template root", "Session lock"} {
		passed, ok := names[name]
		if !ok {
			t.Fatalf("missing check %q in %+v", name, results)
		}
		if !passed {
			t.Fatalf("expected %q to pass", name)
		}
	}
	failed := preflight.Failed(results)
	if len(failed) != 1 || failed[0].Name != "Archive directory" {
		t.Fatalf("expected only the archive directory to fail, got %+v", failed)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestCheckSystemDepsMemoryEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
	cfg.Host.Engine = config.EngineMemory
	cfg.Host.FFprobeBinary = "ffprobe"
	statuses := preflight.CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 1 || !statuses[0].Available {
		t.Fatalf("expected stubbed ffprobe available, got %+v", statuses)
	}
}
