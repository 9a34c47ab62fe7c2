package config

const (
	defaultConfigPath     = "~/.config/nstoolkit/config.toml"
	defaultProcessor      = "nstool"
	defaultLogDir         = "~/.local/share/nstoolkit/logs"
	defaultLockDir        = "~/.local/state/nstoolkit/locks"
	defaultHistoryPath    = "~/.local/share/nstoolkit/history.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultProcessorEnv   = "NSTOOLKIT_PROCESSOR"
	defaultTimeoutSeconds = 0
)

// Discovery policies for sources without an extension hint.
const (
	UnhintedAll    = "all"
	UnhintedRefuse = "refuse"
)

// defaultMismatchPatterns match the messages nstool emits when a file is
// decoded with the wrong --type.
var defaultMismatchPatterns = []string{
	`(?i)header is corrupted`,
	`(?i)(invalid|bad|unexpected) (header )?(magic|signature|struct)`,
	`(?i)not a valid`,
	`(?i)unsupported (file )?(type|format)`,
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Processor: Processor{
			Binary:           defaultProcessor,
			TimeoutSeconds:   defaultTimeoutSeconds,
			MismatchPatterns: append([]string(nil), defaultMismatchPatterns...),
		},
		Discovery: Discovery{
			Unhinted: UnhintedAll,
		},
		History: History{
			Enabled: false,
			Path:    defaultHistoryPath,
		},
		Paths: Paths{
			LogDir:  defaultLogDir,
			LockDir: defaultLockDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
