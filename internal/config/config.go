// Package config handles tool configuration loading and management.
package config

// Config holds all gomesh settings.
type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParserConfig bounds how much input a single parse may consume.
type ParserConfig struct {
	MaxTriangles  int `yaml:"max_triangles"`
	MaxLineLength int `yaml:"max_line_length"`
}

// WatchConfig holds file-watching settings.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			MaxTriangles:  10_000_000,
			MaxLineLength: 1024,
		},
		Watch: WatchConfig{
			DebounceMillis: 300,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
