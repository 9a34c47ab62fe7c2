package config

import (
	"fmt"
	"os"
	"strings"

	"nstoolkit/internal/formats"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProcessor()
	c.normalizeDiscovery()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return c.normalizeFormats()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProcessor() {
	if value, ok := os.LookupEnv(defaultProcessorEnv); ok && strings.TrimSpace(value) != "" {
		c.Processor.Binary = value
	}
	c.Processor.Binary = strings.TrimSpace(c.Processor.Binary)
	if c.Processor.Binary == "" {
		c.Processor.Binary = defaultProcessor
	}
	patterns := c.Processor.MismatchPatterns[:0]
	for _, p := range c.Processor.MismatchPatterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.Processor.MismatchPatterns = patterns
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.Unhinted = strings.ToLower(strings.TrimSpace(c.Discovery.Unhinted))
	if c.Discovery.Unhinted == "" {
		c.Discovery.Unhinted = UnhintedAll
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
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

func (c *Config) normalizeFormats() error {
	table, err := formats.NewTable(c.Formats.ExtensionHints)
	if err != nil {
		return fmt.Errorf("formats.extension_hints: %w", err)
	}
	c.table = table
	return nil
}
