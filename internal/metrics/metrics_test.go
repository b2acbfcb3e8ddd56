package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mediafx/internal/sequencer"
	"mediafx/internal/testsupport"
)

func TestInstrumentCountsSessionCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	engine := c.Instrument(testsupport.NewEngine(t))

	ctx := context.Background()
	session, err := sequencer.NewRegistry().Create(ctx, engine, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer session.Dispose()

	if _, err := session.AddMovie(ctx, testsupport.ClipPath, 1); err != nil {
		t.Fatalf("AddMovie: %v", err)
	}
	if _, err := session.AddMovie(ctx, "/media/unknown.mp4", 2); err == nil {
		t.Fatal("expected undecodable movie to fail")
	}
	if _, err := session.AddSound(ctx, testsupport.MusicPath, 3); err != nil {
		t.Fatalf("AddSound: %v", err)
	}
	if err := session.Encode(ctx, filepath.Join(t.TempDir(), "out.mp4")); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	checks := []struct {
		operation, outcome string
		want               float64
	}{
		{"reset_project", OutcomeOK, 1},
		{"apply_encoder", OutcomeOK, 1},
		{"add_movie", OutcomeFinished, 1},
		{"add_movie", OutcomeRejected, 1},
		{"add_sound", OutcomeFinished, 1},
		{"set_range_to_entries", OutcomeFinished, 1},
		{"render_animation", OutcomeFinished, 1},
	}
	for _, tc := range checks {
		got := testutil.ToFloat64(c.operations.WithLabelValues(tc.operation, tc.outcome))
		if got != tc.want {
			t.Fatalf("%s/%s = %v, want %v", tc.operation, tc.outcome, got, tc.want)
		}
	}
	if got := testutil.ToFloat64(c.entriesAdded.WithLabelValues("MOVIE")); got != 1 {
		t.Fatalf("movies added = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.renderDuration); got != 1 {
		t.Fatalf("expected one render histogram, got %d", got)
	}
	if testutil.ToFloat64(c.lastRender) <= 0 {
		t.Fatal("expected last render timestamp to be set")
	}
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.observe("reset_project", nil)

	path := filepath.Join(t.TempDir(), "collector", "mediafx.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `mediafx_host_operations_total{operation="reset_project",outcome="ok"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", data)
	}
	if err := WriteTextfile("", reg); err == nil {
		t.Fatal("expected error for empty path")
	}
}
