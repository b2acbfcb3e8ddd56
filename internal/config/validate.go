package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHost() error {
	switch c.Host.Engine {
	case EngineBlender, EngineMemory:
	default:
		return fmt.Errorf("host.engine: unsupported value %q (want %q or %q)", c.Host.Engine, EngineBlender, EngineMemory)
	}
	if c.Host.StartupTimeout < 0 {
		return errors.New("host.startup_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.ResolutionX <= 0 || c.Encoder.ResolutionY <= 0 {
		return fmt.Errorf("encoder.resolution_x/resolution_y must be positive, got %dx%d", c.Encoder.ResolutionX, c.Encoder.ResolutionY)
	}
	if c.Encoder.FPS <= 0 {
		return errors.New("encoder.fps must be positive")
	}
	if c.Encoder.FPSBase <= 0 {
		return errors.New("encoder.fps_base must be positive")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Textfile == "" {
		return nil
	}
	if !strings.HasSuffix(filepath.Base(c.Metrics.Textfile), ".prom") {
		return fmt.Errorf("metrics.textfile: %q must end in .prom for the node exporter", c.Metrics.Textfile)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: %q must be an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
