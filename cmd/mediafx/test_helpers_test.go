package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediafx/internal/config"
	"mediafx/internal/host"
	"mediafx/internal/host/memhost"
	"mediafx/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string

	mu      sync.Mutex
	engines []*memhost.Engine
	dryRuns []bool
}

// setupCLITestEnv writes a config for a fresh temp tree and swaps the engine
// factory for fixture-backed in-memory hosts.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	env := &cliTestEnv{
		cfg:     cfg,
		baseDir: testsupport.BaseDir(cfg),
	}
	env.configPath = filepath.Join(env.baseDir, "config.toml")
	env.writeConfig(t)

	previous := newEngine
	newEngine = func(_ context.Context, _ *config.Config, dryRun bool, _ *slog.Logger) (host.Engine, error) {
		engine := testsupport.NewEngine(t)
		env.mu.Lock()
		env.engines = append(env.engines, engine)
		env.dryRuns = append(env.dryRuns, dryRun)
		env.mu.Unlock()
		return engine, nil
	}
	t.Cleanup(func() { newEngine = previous })
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) engineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.engines)
}

func (e *cliTestEnv) lastEngine(t *testing.T) *memhost.Engine {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.engines) == 0 {
		t.Fatal("no engine was started")
	}
	return e.engines[len(e.engines)-1]
}

// writeManifest writes a TOML manifest placing the fixture clip and music.
func (e *cliTestEnv) writeManifest(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "manifests", name)
	testsupport.WriteFile(t, path, body)
	return path
}

func clipAndMusicManifest(output string) string {
	return `output = "` + output + `"

[[movie]]
path = "` + filepath.ToSlash(testsupport.ClipPath) + `"
channel = 1

[[sound]]
path = "` + filepath.ToSlash(testsupport.MusicPath) + `"
channel = 2
`
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
