package main

import (
	"strings"
	"sync"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/narwhalmedia/decisionengine/internal/config"
	"github.com/narwhalmedia/decisionengine/internal/container"
	"github.com/narwhalmedia/decisionengine/internal/logger"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	once     sync.Once
	config   *config.Config
	logger   *zap.Logger
	injector *do.RootScope
	err      error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensure loads configuration, builds the logger and creates the injector once.
func (c *commandContext) ensure() (*do.RootScope, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.err = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Logger.Level = *c.logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			c.err = err
			return
		}

		log, err := logger.New(cfg.Service.Name, cfg.Service.Environment, cfg.Logger.Level, cfg.Logger.Format)
		if err != nil {
			c.err = err
			return
		}

		c.config = cfg
		c.logger = log
		c.injector = container.New(cfg, log)
	})
	return c.injector, c.err
}

func (c *commandContext) close() {
	if c.injector == nil {
		return
	}
	if report := c.injector.Shutdown(); report != nil {
		c.logger.Debug("container shutdown", zap.Any("report", report))
	}
	_ = c.logger.Sync()
}
