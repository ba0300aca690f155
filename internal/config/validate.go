package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ClipsDir == "" {
		return errors.New("clips_dir must be set")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if c.OutputName == "" {
		return errors.New("output_name must be set")
	}
	if filepath.Base(c.OutputName) != c.OutputName {
		return fmt.Errorf("output_name %q must be a file name, not a path", c.OutputName)
	}
	if !strings.EqualFold(filepath.Ext(c.OutputName), ".mp4") {
		return fmt.Errorf("output_name %q must end in .mp4", c.OutputName)
	}
	if c.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("probe_timeout_seconds must be positive, got %d", c.ProbeTimeoutSeconds)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unsupported value %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	if c.Publish.Enabled && strings.TrimSpace(c.Publish.Bucket) == "" {
		return errors.New("publish.bucket must be set when publish is enabled")
	}
	return nil
}
