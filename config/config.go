// Package config loads the YAML settings of a backfill run.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/xhit/go-str2duration/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/tools/log"
)

const (
	EnvLogLevel = "TAENGINE_LOG_LEVEL"
	EnvSession  = "TAENGINE_SESSION"
)

// Config holds the indicator set and the runner settings. Session is the VWAP session
// length (for example "1d"), empty means a single session for the whole series.
type Config struct {
	Indicators  indicator.Config `yaml:"indicators"`
	Session     string           `yaml:"session"`
	SkipInvalid bool             `yaml:"skip_invalid"`
	LogLevel    string           `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Indicators: indicator.DefaultConfig(),
		LogLevel:   "info",
	}
}

// Load reads path over the defaults, unknown keys are rejected. An empty path only
// applies the environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := Parse(content, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", path)
		}
	}

	if level, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = level
	}
	if session, ok := os.LookupEnv(EnvSession); ok {
		cfg.Session = session
	}
	return cfg, cfg.Validate()
}

// Parse decodes content into cfg, keeping the values content does not set.
func Parse(content []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	err := decoder.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// SessionDuration parses Session, zero when unset.
func (c Config) SessionDuration() (time.Duration, error) {
	if c.Session == "" {
		return 0, nil
	}
	return str2duration.ParseDuration(c.Session)
}

func (c Config) Level() (log.Level, error) {
	return log.ParseLevel(c.LogLevel)
}

func (c Config) Validate() error {
	err := c.Indicators.Validate()
	if session, sessionErr := c.SessionDuration(); sessionErr != nil {
		err = multierr.Append(err, errors.Wrap(sessionErr, "session"))
	} else if session < 0 {
		err = multierr.Append(err, errors.Errorf("session: must not be negative, got %s", c.Session))
	}
	if _, levelErr := c.Level(); levelErr != nil {
		err = multierr.Append(err, errors.Wrap(levelErr, "log_level"))
	}
	return err
}
