package archive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	draptolib "github.com/five82/drapto"
)

type fakeTranscoder struct {
	calls  int
	input  string
	outDir string
	steps  []float64
	err    error
}

func (f *fakeTranscoder) Transcode(_ context.Context, input, outputDir string, progress func(Progress)) (string, error) {
	f.calls++
	f.input, f.outDir = input, outputDir
	for _, pct := range f.steps {
		progress(Progress{Stage: "encoding", Percent: pct})
	}
	if f.err != nil {
		return "", f.err
	}
	out := OutputPath(input, outputDir)
	if err := os.WriteFile(out, []byte("av1"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeRender(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(path, []byte("render"), 0o644); err != nil {
		t.Fatalf("write render: %v", err)
	}
	return path
}

func TestArchiveWritesIntoOutputDir(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeTranscoder{steps: []float64{1, 5, 12, 19, 55, 100}}
	outDir := filepath.Join(t.TempDir(), "archive")
	a := NewArchiver(fake, outDir, newTestLogger(&buf))

	render := writeRender(t)
	out, err := a.Archive(context.Background(), render)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if out != filepath.Join(outDir, "final.mkv") {
		t.Fatalf("unexpected archive path %q", out)
	}
	if fake.input != render || fake.outDir != outDir {
		t.Fatalf("unexpected transcoder args: %q %q", fake.input, fake.outDir)
	}
	logs := buf.String()
	if got := strings.Count(logs, "archive progress"); got != 4 {
		t.Fatalf("expected 4 progress lines (0, 10, 50, 100), got %d:\n%s", got, logs)
	}
	if !strings.Contains(logs, "archive complete") || !strings.Contains(logs, "archive_bytes=3") {
		t.Fatalf("expected completion log, got:\n%s", logs)
	}
}

func TestArchiveFailureIsWrapped(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("svt-av1 missing")
	a := NewArchiver(&fakeTranscoder{err: boom}, t.TempDir(), newTestLogger(&buf))

	_, err := a.Archive(context.Background(), writeRender(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transcoder error, got %v", err)
	}
	if !strings.Contains(buf.String(), "event_type=archive_failed") {
		t.Fatalf("expected structured failure log, got:\n%s", buf.String())
	}
}

func TestArchiveRejectsMissingSource(t *testing.T) {
	fake := &fakeTranscoder{}
	a := NewArchiver(fake, t.TempDir(), nil)
	if _, err := a.Archive(context.Background(), filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Fatal("expected error for missing render")
	}
	if _, err := a.Archive(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for directory source")
	}
	if fake.calls != 0 {
		t.Fatalf("transcoder should not run, ran %d times", fake.calls)
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/renders/cut.v2.mp4", "/archive"); got != filepath.Join("/archive", "cut.v2.mkv") {
		t.Fatalf("OutputPath = %q", got)
	}
}

func TestDraptoRejectsEmptyArguments(t *testing.T) {
	d := NewDrapto(nil)
	if _, err := d.Transcode(context.Background(), "", "/out", nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := d.Transcode(context.Background(), "/in.mp4", " ", nil); err == nil {
		t.Fatal("expected error for empty output dir")
	}
}

func TestReporterForwardsProgress(t *testing.T) {
	var buf bytes.Buffer
	var got []Progress
	r := newReporter(newTestLogger(&buf), func(p Progress) { got = append(got, p) })

	eta := 3 * time.Second
	r.StageProgress(draptolib.StageProgress{Stage: "analysis", Percent: 40, ETA: &eta})
	r.EncodingProgress(draptolib.ProgressSnapshot{Percent: 55, ETA: time.Minute})
	r.Warning("low disk space")

	if len(got) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(got))
	}
	if got[0].Stage != "analysis" || got[0].Percent != 40 || got[0].ETA != eta {
		t.Fatalf("unexpected stage progress: %+v", got[0])
	}
	if got[1].Stage != "encoding" || got[1].Percent != 55 || got[1].ETA != time.Minute {
		t.Fatalf("unexpected encoding progress: %+v", got[1])
	}
	if !strings.Contains(buf.String(), "event_type=archive_warning") {
		t.Fatalf("expected warning log, got:\n%s", buf.String())
	}
}
