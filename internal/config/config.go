package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"TTT_LOG_LEVEL" env-default:"info"`
	HTTPAddr   string        `yaml:"http-addr" env:"TTT_HTTP_ADDR" env-default:":8080"`
	ThinkDelay time.Duration `yaml:"think-delay" env:"TTT_THINK_DELAY" env-default:"500ms"`
}

// Load reads the YAML file at path, then applies environment overrides.
// A missing file is not an error: defaults and the environment are used.
func Load(path string) (*Config, error) {
	config := &Config{}

	err := cleanenv.ReadConfig(path, config)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (that *Config) SlogLevel() slog.Level {
	switch that.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
