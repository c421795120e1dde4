package config

const (
	defaultDataDir   = "~/.local/share/cadence"
	defaultLogDir    = "~/.local/share/cadence/logs"
	defaultTTLDays   = 30
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Cache: Cache{
			TTLDays: defaultTTLDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
