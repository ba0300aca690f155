package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/melody-ding/go-vidcompose/internal/config"
	"github.com/melody-ding/go-vidcompose/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

// ensureConfig loads .env (if any), the TOML config and the logger once.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		cfg, err := config.Load(deref(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if v := deref(c.logLevelFlag); v != "" {
			cfg.LogLevel = strings.ToLower(v)
		}
		if v := deref(c.logFormatFlag); v != "" {
			cfg.LogFormat = strings.ToLower(v)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the logger after command flags have adjusted the config.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
