package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"
	EnvProd  = "prod"

	DotEnvFile = ".env"
)

type Config struct {
	Env     string  `yaml:"env" env:"NAMKNOB_ENV" env-default:"local"`
	Output  Output  `yaml:"output"`
	History History `yaml:"history"`
	Log     Log     `yaml:"log"`
}

type Output struct {
	Dir          string `yaml:"dir" env:"NAMKNOB_OUTPUT_DIR" env-default:"."`
	ArchiveLabel string `yaml:"archive_label" env:"NAMKNOB_ARCHIVE_LABEL" env-default:"nam_volume_knob"`
	// Individual disables archiving of multi-artifact exports.
	Individual bool `yaml:"individual" env:"NAMKNOB_INDIVIDUAL"`
}

type History struct {
	Enabled bool   `yaml:"enabled" env:"NAMKNOB_HISTORY"`
	Path    string `yaml:"path" env:"NAMKNOB_HISTORY_PATH" env-default:"namknob-history.db"`
}

type Log struct {
	Level string `yaml:"level" env:"NAMKNOB_LOG_LEVEL" env-default:"warn"`
}

// Load reads path (when it exists) and applies environment overrides.
// A .env file in the working directory is loaded first; variables
// already set in the process win over it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
		}
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
			return &cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Env != EnvLocal && c.Env != EnvProd {
		return fmt.Errorf("env must be %q or %q, got %q", EnvLocal, EnvProd, c.Env)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Output.ArchiveLabel == "" {
		return errors.New("output.archive_label must not be empty")
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Usage describes the recognised environment variables.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
