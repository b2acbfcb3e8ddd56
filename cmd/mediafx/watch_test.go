package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediafx/internal/logging"
)

func TestWatchFileRerunsAfterChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cut.toml")
	if err := os.WriteFile(path, []byte("output = \"a.mp4\"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	other := filepath.Join(dir, "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, logging.NewNop(), func(context.Context) {
			runs <- struct{}{}
		})
	}()

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	waitRun("initial run")

	if err := os.WriteFile(other, []byte("unrelated"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case <-runs:
		t.Fatal("change to another file triggered a run")
	case <-time.After(200 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("output = \"b.mp4\"\n"), 0o644); err != nil {
			t.Fatalf("rewrite manifest: %v", err)
		}
	}
	waitRun("run after change")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchFile: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
}

func TestWatchFileMissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "gone", "cut.toml"), time.Millisecond, logging.NewNop(), func(context.Context) {
		t.Fatal("fn should not run when the directory cannot be watched")
	})
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
