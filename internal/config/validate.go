package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProcessor(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProcessor() error {
	if c.Processor.Binary == "" {
		return errors.New("processor.binary must be set")
	}
	if c.Processor.TimeoutSeconds < 0 {
		return errors.New("processor.timeout_seconds must be >= 0")
	}
	for _, pattern := range c.Processor.MismatchPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("processor.mismatch_patterns: %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	switch c.Discovery.Unhinted {
	case UnhintedAll, UnhintedRefuse:
		return nil
	default:
		return fmt.Errorf("discovery.unhinted must be %q or %q, got %q", UnhintedAll, UnhintedRefuse, c.Discovery.Unhinted)
	}
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
