package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `mapstructure:"level" json:"level,omitempty" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format,omitempty" validate:"oneof=json console"`
	Output string `mapstructure:"output" json:"output,omitempty" validate:"oneof=stdout stderr"`
}

// New builds a logger writing to the configured output
func New(cfg *Config) (zerolog.Logger, error) {
	var w io.Writer = os.Stderr
	if cfg != nil && cfg.Output == "stdout" {
		w = os.Stdout
	}
	return NewWithWriter(cfg, w)
}

// NewWithWriter builds a logger writing to w; Output is ignored
func NewWithWriter(cfg *Config, w io.Writer) (logger zerolog.Logger, err error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	v := validator.New()
	if err = v.Struct(cfg); err != nil {
		return logger, fmt.Errorf("logger config validation error: %w", err)
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return logger, err
	}

	logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "paginate").
		Logger()
	return logger, nil
}

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}
