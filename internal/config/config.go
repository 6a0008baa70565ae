package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hadi77ir/go-paginate/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI, e.g. PAGINATE_MONGO_URI
const EnvPrefix = "PAGINATE"

// Config is the CLI configuration
type Config struct {
	Mongo    Mongo         `mapstructure:"mongo"`
	Defaults Defaults      `mapstructure:"defaults"`
	Log      logger.Config `mapstructure:"log"`
}

// Mongo holds the connection settings
type Mongo struct {
	URI        string        `mapstructure:"uri" validate:"required"`
	Database   string        `mapstructure:"database" validate:"required"`
	Collection string        `mapstructure:"collection" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxTime    time.Duration `mapstructure:"max_time" validate:"gte=0"`
}

// Defaults are the pagination defaults applied to every query
type Defaults struct {
	Limit      int  `mapstructure:"limit" validate:"gte=0"`
	MaxLimit   int  `mapstructure:"max_limit" validate:"gte=0"`
	LeanWithID bool `mapstructure:"lean_with_id"`
	Consistent bool `mapstructure:"consistent"`
}

// New returns a viper instance with defaults and environment binding set up
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "")
	v.SetDefault("mongo.collection", "")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("mongo.max_time", 0)
	v.SetDefault("defaults.limit", 10)
	v.SetDefault("defaults.max_limit", 0)
	v.SetDefault("defaults.lean_with_id", true)
	v.SetDefault("defaults.consistent", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	// keys must be known to viper (via a default) for Unmarshal to see their env overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes the validated configuration
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &cfg, nil
}
