package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	defaultLevel      = "info"
	consoleTimeFormat = "15:04:05.000000"
)

type (
	// Config holds the logger configuration, usually loaded from a YAML file.
	Config struct {
		// Default log level for all modules: trace, debug, info, warn, error.
		DefaultLevel string `yaml:"defaultLevel"`
		// OutputPath is the log file location; empty or "stderr" logs to stderr.
		OutputPath string `yaml:"outputPath"`
		// ConsoleFormat enables human readable output instead of JSON.
		ConsoleFormat bool `yaml:"consoleFormat"`
		// ShowCaller adds the caller field to every record.
		ShowCaller bool `yaml:"showCaller"`
	}
)

// LoadConfig reads the file and parses it as YAML logger configuration.
func LoadConfig(fileName string) (*Config, error) {
	yamlFile, err := os.ReadFile(filepath.Clean(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read logger config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logger config: %w", err)
	}
	return cfg, nil
}

// New creates a logger based on the configuration. Nil configuration creates
// an info level JSON logger to stderr.
func New(cfg *Config) (zerolog.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = defaultLevel
	}
	level, err := zerolog.ParseLevel(cfg.DefaultLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.DefaultLevel, err)
	}
	out, err := output(cfg)
	if err != nil {
		return zerolog.Nop(), err
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.ShowCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), nil
}

// Module returns a sub-logger tagged with the module name.
func Module(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("module", name).Logger()
}

func output(cfg *Config) (io.Writer, error) {
	var out io.Writer
	switch cfg.OutputPath {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(filepath.Clean(cfg.OutputPath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}
	if cfg.ConsoleFormat {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	} else {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	}
	return out, nil
}
