package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when no config path is given.
const DefaultFileName = "vidcompose.toml"

// Publish contains configuration for uploading the rendered file to S3.
type Publish struct {
	Enabled   bool   `toml:"enabled"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`
}

// Config holds the render environment. Output format parameters are fixed
// in the encode package and deliberately absent here.
type Config struct {
	ClipsDir            string  `toml:"clips_dir"`
	OutputDir           string  `toml:"output_dir"`
	OutputName          string  `toml:"output_name"`
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	ProbeTimeoutSeconds int     `toml:"probe_timeout_seconds"`
	LogLevel            string  `toml:"log_level"`
	LogFormat           string  `toml:"log_format"`
	Publish             Publish `toml:"publish"`

	// Runtime-only switches set from CLI flags.
	DryRun  bool `toml:"-"`
	Verbose bool `toml:"-"`
}

// Default returns the configuration matching the original hardcoded script.
func Default() Config {
	return Config{
		ClipsDir:            "./clips",
		OutputDir:           "./output",
		OutputName:          "test_render.mp4",
		FFmpegBinary:        "ffmpeg",
		ProbeTimeoutSeconds: 30,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Load reads the TOML file at path on top of the defaults. An empty path
// falls back to DefaultFileName, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OutputPath returns the full path of the rendered file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputName)
}

// ClipPath resolves a clip file name against ClipsDir.
func (c *Config) ClipPath(name string) string {
	return filepath.Join(c.ClipsDir, name)
}

// ProbeTimeout returns the ffprobe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// Encode serializes the configuration back to TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) normalize() {
	c.ClipsDir = strings.TrimSpace(c.ClipsDir)
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	c.OutputName = strings.TrimSpace(c.OutputName)
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
}
