package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeHost(); err != nil {
		return err
	}
	c.normalizeEncoder()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeHost() error {
	c.Host.Engine = strings.ToLower(strings.TrimSpace(c.Host.Engine))
	if c.Host.Engine == "" {
		c.Host.Engine = defaultEngine
	}
	if value, ok := os.LookupEnv(blenderEnvironmentBinary); ok && strings.TrimSpace(value) != "" {
		c.Host.BlenderBinary = strings.TrimSpace(value)
	}
	c.Host.BlenderBinary = strings.TrimSpace(c.Host.BlenderBinary)
	if c.Host.BlenderBinary == "" {
		c.Host.BlenderBinary = defaultBlenderBinary
	}
	c.Host.FFprobeBinary = strings.TrimSpace(c.Host.FFprobeBinary)
	if c.Host.FFprobeBinary == "" {
		c.Host.FFprobeBinary = defaultFFprobeBinary
	}
	c.Host.Workspace = strings.TrimSpace(c.Host.Workspace)
	if c.Host.Workspace == "" {
		c.Host.Workspace = defaultWorkspace
	}
	roots := make([]string, 0, len(c.Host.TemplateRoots))
	for _, root := range c.Host.TemplateRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(root))
		if err != nil {
			return fmt.Errorf("host.template_roots: %w", err)
		}
		roots = append(roots, expanded)
	}
	c.Host.TemplateRoots = roots
	if c.Host.StartupTimeout == 0 {
		c.Host.StartupTimeout = defaultStartupTimeout
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Format = strings.ToUpper(strings.TrimSpace(c.Encoder.Format))
	c.Encoder.Codec = strings.ToUpper(strings.TrimSpace(c.Encoder.Codec))
	c.Encoder.AudioCodec = strings.ToUpper(strings.TrimSpace(c.Encoder.AudioCodec))
	if c.Encoder.Format == "" {
		c.Encoder.Format = defaultContainerFormat
	}
	if c.Encoder.Codec == "" {
		c.Encoder.Codec = defaultVideoCodec
	}
	if c.Encoder.AudioCodec == "" {
		c.Encoder.AudioCodec = defaultAudioCodec
	}
	if c.Encoder.FPSBase == 0 {
		c.Encoder.FPSBase = defaultFPSBase
	}
}

func (c *Config) normalizeArchive() error {
	var err error
	if strings.TrimSpace(c.Archive.OutputDir) == "" {
		c.Archive.OutputDir = defaultArchiveDir
	}
	if c.Archive.OutputDir, err = expandPath(c.Archive.OutputDir); err != nil {
		return fmt.Errorf("archive.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile == "" {
		return nil
	}
	if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
