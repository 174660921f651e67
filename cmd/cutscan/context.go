package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gwlsn/cutscan/internal/config"
	"github.com/gwlsn/cutscan/internal/logger"
	"github.com/gwlsn/cutscan/internal/store"
)

// configEnv overrides the default config file location.
const configEnv = "CUTSCAN_CONFIG"

const defaultConfigPath = "cutscan.yaml"

type globalFlags struct {
	config   string
	logLevel string
	filter   string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) configPath() string {
	if path := strings.TrimSpace(c.flags.config); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(configEnv)); path != "" {
		return path
	}
	return defaultConfigPath
}

// ensureConfig loads the config once, applies flag overrides and
// initializes logging.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.ToLower(c.flags.logLevel); level != "" {
			if !config.IsValidLogLevel(level) {
				c.configErr = fmt.Errorf("invalid log level %q (want one of %s)", c.flags.logLevel, strings.Join(config.ValidLogLevels, ", "))
				return
			}
			cfg.LogLevel = level
		}
		if c.flags.filter != "" {
			cfg.Filter = c.flags.filter
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		logger.Init(cfg.LogLevel)
		c.config = cfg
	})
	return c.config, c.configErr
}

// openStore opens the run history, or returns nil when it is disabled.
func (c *commandContext) openStore() (*store.SQLiteStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.StorePath == "" {
		return nil, nil
	}
	return store.NewSQLiteStore(cfg.StorePath)
}
