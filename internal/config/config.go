package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"nstoolkit/internal/formats"
)

//go:embed sample_config.toml
var sampleConfig string

// Processor contains settings for the external nstool binary.
type Processor struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// MismatchPatterns are regular expressions matched against processor error
	// messages. A match marks the attempt as a wrong-type guess rather than a
	// real failure.
	MismatchPatterns []string `toml:"mismatch_patterns"`
}

// Discovery controls how sources without a declared type are handled.
type Discovery struct {
	// Unhinted is "all" (try every supported type in default order) or
	// "refuse" (reject the request) when the extension gives no hint.
	Unhinted string `toml:"unhinted"`
}

// Formats contains extension hint overrides.
type Formats struct {
	ExtensionHints map[string]string `toml:"extension_hints"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	LockDir string `toml:"lock_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for nstoolkit.
//
// Configuration sections by subsystem:
//   - Processor: nstool binary, per-attempt timeout, mismatch patterns
//   - Discovery: policy for sources without a type hint
//   - Formats: extra extension to type hints
//   - History: sqlite run history
//   - Paths: log and extraction lock directories
//   - Logging: log format and level
type Config struct {
	Processor Processor `toml:"processor"`
	Discovery Discovery `toml:"discovery"`
	Formats   Formats   `toml:"formats"`
	History   History   `toml:"history"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`

	table *formats.Table
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nstoolkit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.LockDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dir := filepath.Dir(c.History.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	return nil
}

// ProcessorTimeout returns the per-attempt timeout, or 0 when unbounded.
func (c *Config) ProcessorTimeout() time.Duration {
	if c.Processor.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Processor.TimeoutSeconds) * time.Second
}

// FormatTable returns the immutable format table built from the defaults and
// the configured extension hints.
func (c *Config) FormatTable() *formats.Table {
	if c.table != nil {
		return c.table
	}
	table, err := formats.NewTable(c.Formats.ExtensionHints)
	if err != nil {
		return formats.Default()
	}
	return table
}

// TryAllUnhinted reports whether discovery should fall back to the full type
// list when the source extension gives no hint.
func (c *Config) TryAllUnhinted() bool {
	return c.Discovery.Unhinted != UnhintedRefuse
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
