package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
}

// Host selects and configures the editing engine.
type Host struct {
	Engine         string   `toml:"engine"`
	BlenderBinary  string   `toml:"blender_binary"`
	FFprobeBinary  string   `toml:"ffprobe_binary"`
	TemplateRoots  []string `toml:"template_roots"`
	Workspace      string   `toml:"workspace"`
	StartupTimeout int      `toml:"startup_timeout"`
	LockFile       bool     `toml:"lock_file"`
}

// Encoder holds the default output settings for manifests that omit them.
type Encoder struct {
	ResolutionX int    `toml:"resolution_x"`
	ResolutionY int    `toml:"resolution_y"`
	FPS         int    `toml:"fps"`
	FPSBase     int    `toml:"fps_base"`
	Format      string `toml:"format"`
	Codec       string `toml:"codec"`
	AudioCodec  string `toml:"audio_codec"`
}

// Journal controls the SQLite render history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Archive controls the optional post-render AV1 transcode.
type Archive struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
}

// Metrics controls Prometheus textfile output.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Notifications configures ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Renders        bool   `toml:"renders"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mediafx.
//
// Configuration sections by subsystem:
//   - Paths: state, log and render output directories
//   - Host: engine selection, Blender executable, workspace template search
//   - Encoder: default render settings
//   - Journal: render history database
//   - Archive: post-render transcode via Drapto
//   - Metrics: node-exporter textfile output
//   - Notifications: ntfy push notifications for finished renders
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Host    Host    `toml:"host"`
	Encoder Encoder `toml:"encoder"`
	Journal Journal `toml:"journal"`
	Archive Archive `toml:"archive"`
	Metrics Metrics `toml:"metrics"`

	Notifications Notifications `toml:"notifications"`

	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediafx/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediafx.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The render output
// and archive directories are created on demand by the render command.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the location of the render journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the host lock file, or "" when locking is disabled.
func (c *Config) LockPath() string {
	if !c.Host.LockFile {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "host.lock")
}

// LogPath returns the mediafx log file inside the log directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "mediafx.log")
}

// StartupTimeout returns how long to wait for the Blender bridge to come up.
func (c *Config) StartupTimeout() time.Duration {
	return time.Duration(c.Host.StartupTimeout) * time.Second
}

// ResolveOutput places relative render paths under paths.output_dir.
func (c *Config) ResolveOutput(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		if expanded, err := expandPath(path); err == nil {
			return expanded
		}
		return path
	}
	return filepath.Join(c.Paths.OutputDir, path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
