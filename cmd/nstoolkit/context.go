package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nstoolkit/internal/config"
	"nstoolkit/internal/dispatch"
	"nstoolkit/internal/history"
	"nstoolkit/internal/logging"
	"nstoolkit/internal/services/nstool"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	effective := *cfg
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			effective.Logging.Level = level
		}
	}
	return logging.NewFromConfig(&effective)
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, errors.New("run history is disabled; set [history] enabled = true in the configuration")
	}
	return history.Open(cfg.History.Path)
}

// withService builds the dispatch service for one command invocation and
// releases the history store afterwards.
func (c *commandContext) withService(fn func(*dispatch.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	client, err := nstool.New(cfg.Processor.Binary,
		nstool.WithTimeout(cfg.ProcessorTimeout()),
		nstool.WithMismatchPatterns(cfg.Processor.MismatchPatterns),
		nstool.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("configure processor: %w", err)
	}

	opts := []dispatch.Option{
		dispatch.WithTryAllUnhinted(cfg.TryAllUnhinted()),
		dispatch.WithLockDir(cfg.Paths.LockDir),
		dispatch.WithLogger(logger),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history store", logging.Error(err))
			}
		}()
		opts = append(opts, dispatch.WithRecorder(store))
	}

	svc, err := dispatch.NewService(cfg.FormatTable(), client, opts...)
	if err != nil {
		return err
	}
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
