package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mediafx/internal/archive"
	"mediafx/internal/journal"
	"mediafx/internal/testsupport"
)

func TestRenderRecordsJournalAndWritesOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("out/final.mp4"))

	out, _, err := runCLI(t, []string{"render", manifest}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Rendered 2 entries")

	output := filepath.Join(env.cfg.Paths.OutputDir, "out", "final.mp4")
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected render at %s: %v", output, err)
	}
	engine := env.lastEngine(t)
	if renders := engine.Renders(); len(renders) != 1 || renders[0] != output {
		t.Fatalf("engine renders = %v, want [%s]", renders, output)
	}
	if !engine.Closed() {
		t.Fatal("expected engine to be closed after render")
	}

	jr := testsupport.MustOpenJournal(t, env.cfg)
	recent, err := jr.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 render, got %d", len(recent))
	}
	got := recent[0]
	if got.Status != journal.RenderSucceeded || got.EntryCount != 2 || got.Output != output {
		t.Fatalf("unexpected render record %+v", got)
	}
	if got.Manifest != manifest {
		t.Fatalf("manifest = %q, want %q", got.Manifest, manifest)
	}
	entries, err := jr.Entries(context.Background(), got.SessionID)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Source != testsupport.ClipPath || entries[1].Source != testsupport.MusicPath {
		t.Fatalf("unexpected journal entries %+v", entries)
	}
}

func TestRenderOutputFlagOverridesManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("ignored.mp4"))
	target := filepath.Join(env.baseDir, "elsewhere", "flag.mp4")

	if _, _, err := runCLI(t, []string{"render", "--output", target, manifest}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected render at %s: %v", target, err)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "ignored.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("manifest output should not be rendered, stat err = %v", err)
	}
}

func TestRenderDryRunSkipsJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("dry.mp4"))

	out, _, err := runCLI(t, []string{"render", "--dry-run", manifest}, env.configPath)
	if err != nil {
		t.Fatalf("render --dry-run: %v", err)
	}
	requireContains(t, out, "Dry-run rendered 2 entries")
	if len(env.dryRuns) != 1 || !env.dryRuns[0] {
		t.Fatalf("expected a single dry-run engine, got %v", env.dryRuns)
	}
	if _, err := os.Stat(env.cfg.JournalPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run should not create the journal, stat err = %v", err)
	}
}

func TestRenderSaveDebugWritesProject(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("cut.mp4"))
	debug := filepath.Join(env.baseDir, "debug", "state.blend")

	if _, _, err := runCLI(t, []string{"render", "--save-debug", debug, manifest}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(debug); err != nil {
		t.Fatalf("expected debug project at %s: %v", debug, err)
	}
}

func TestRenderUndecodableSourceIsOperationFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "bad.toml", `output = "bad.mp4"

[[movie]]
path = "/media/missing.mp4"
channel = 1
`)

	_, _, err := runCLI(t, []string{"render", manifest}, env.configPath)
	if err == nil {
		t.Fatal("expected render to fail")
	}
	msg := describeError(err)
	requireContains(t, msg, "missing.mp4")
	requireContains(t, msg, "hint: the host rejected the operation")
	if !env.lastEngine(t).Closed() {
		t.Fatal("expected engine to be closed after a failed render")
	}
}

func TestRenderRejectsInvalidManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := env.writeManifest(t, "invalid.toml", `output = "x.mp4"

[[movie]]
path = "/media/clip.mp4"
channel = 0
`)

	_, _, err := runCLI(t, []string{"render", manifest}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "movie[0].channel") {
		t.Fatalf("expected channel validation error, got %v", err)
	}
	if env.engineCount() != 0 {
		t.Fatal("no engine should start for an invalid manifest")
	}
}

func TestRenderWritesMetricsTextfile(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Metrics.Textfile = filepath.Join(env.baseDir, "metrics", "mediafx.prom")
	env.writeConfig(t)
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("cut.mp4"))

	if _, _, err := runCLI(t, []string{"render", manifest}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(env.cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	requireContains(t, string(data), `mediafx_host_operations_total{operation="render_animation",outcome="finished"} 1`)
	requireContains(t, string(data), `mediafx_entries_added_total{kind="MOVIE"} 1`)
}

type fakeTranscoder struct {
	inputs []string
}

func (f *fakeTranscoder) Transcode(_ context.Context, input, outputDir string, progress func(archive.Progress)) (string, error) {
	f.inputs = append(f.inputs, input)
	progress(archive.Progress{Stage: "encoding", Percent: 100})
	out := archive.OutputPath(input, outputDir)
	if err := os.WriteFile(out, []byte("av1"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func TestRenderArchivesWhenEnabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithArchive(), testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	fake := &fakeTranscoder{}
	previous := newTranscoder
	newTranscoder = func(*slog.Logger) archive.Transcoder { return fake }
	t.Cleanup(func() { newTranscoder = previous })
	manifest := env.writeManifest(t, "cut.toml", clipAndMusicManifest("cut.mp4"))

	out, _, err := runCLI(t, []string{"render", manifest}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := filepath.Join(env.cfg.Archive.OutputDir, "cut.mkv")
	requireContains(t, out, "Archived to "+want)
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one transcode, got %v", fake.inputs)
	}

	jr := testsupport.MustOpenJournal(t, env.cfg)
	recent, err := jr.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ArchivePath != want {
		t.Fatalf("unexpected render record %+v", recent)
	}
}

func TestRenderPublishesNotifications(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = server.URL
	env.writeConfig(t)
	good := env.writeManifest(t, "cut.toml", clipAndMusicManifest("cut.mp4"))
	bad := env.writeManifest(t, "bad.toml", "output = \"bad.mp4\"\n\n[[movie]]\npath = \"/media/missing.mp4\"\nchannel = 1\n")

	if _, _, err := runCLI(t, []string{"render", good}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, _, err := runCLI(t, []string{"render", bad}, env.configPath); err == nil {
		t.Fatal("expected bad manifest to fail")
	}
	if _, _, err := runCLI(t, []string{"render", "--dry-run", good}, env.configPath); err != nil {
		t.Fatalf("render --dry-run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"mediafx - Render Complete", "mediafx - Render Failed"}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("notifications = %v, want %v", titles, want)
	}
}
