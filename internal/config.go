package internal

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/vidinfo/internal/api"
	"github.com/hbomb79/vidinfo/internal/probe"
	"github.com/hbomb79/vidinfo/internal/toast"
	"github.com/hbomb79/vidinfo/internal/watch"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config is the struct used to contain the
// various user config supplied by file, or
// by the environment.
type Config struct {
	Probe      probe.Config   `yaml:"probe"`
	Toast      toast.Config   `yaml:"toast"`
	Watch      watch.Config   `yaml:"watch"`
	RestConfig api.RestConfig `yaml:"api"`
	LogLevel   string         `yaml:"log_level" env:"VIDINFO_LOG_LEVEL" env-default:"INFO"`
}

// LoadConfig reads the YAML configuration file at path (if path is not empty)
// and applies the environment on top of it. Values provided by neither fall
// back to their defaults. The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path '%s': %w", path, err)
		}

		if err := cleanenv.ReadConfig(expanded, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from '%s': %w", expanded, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the config against the constraints declared on
// its fields.
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if _, ok := logger.ParseStatus(config.LogLevel); !ok {
		return fmt.Errorf("configuration is invalid: unknown log level '%s'", config.LogLevel)
	}

	return nil
}

// ApplyLogLevel sets the minimum level of the logger to the level
// named in the config.
func (config *Config) ApplyLogLevel() {
	if status, ok := logger.ParseStatus(config.LogLevel); ok {
		logger.SetMinLoggingLevel(status.Level())
	}
}
