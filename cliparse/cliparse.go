package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	ConfigFile     string
	LogLevel       string
	MetricsEnabled bool
}

// fileConfig mirrors the optional TOML config file
type fileConfig struct {
	Server struct {
		Port int `toml:"port"`
	} `toml:"server"`
	Database struct {
		URL  string `toml:"url"`
		Type string `toml:"type"`
	} `toml:"database"`
	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// ParseFlags builds the Config. Precedence is flag, then environment, then
// config file, then defaults. A .env file in the working directory is loaded
// into the environment first when present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var metrics string

	fs := flag.NewFlagSet("splitboard", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ConfigFile, "c", "", "TOML config file")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&metrics, "metrics", "", "Serve Prometheus metrics on /metrics (true or false)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Existing environment wins over .env
	_ = godotenv.Load()

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	}
	var file fileConfig
	if cfg.ConfigFile != "" {
		if _, err := toml.DecodeFile(cfg.ConfigFile, &file); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if file.Server.Port != 0 {
			cfg.Port = file.Server.Port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = firstNonEmpty(os.Getenv("DATABASE_TYPE"), file.Database.Type, "sqlite")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), file.Database.URL)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:splitboard.db"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), file.Log.Level, "info")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !validLogLevels[cfg.LogLevel] {
		return Config{}, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	if metrics == "" {
		metrics = os.Getenv("METRICS_ENABLED")
	}
	switch {
	case metrics != "":
		enabled, err := strconv.ParseBool(metrics)
		if err != nil {
			return Config{}, errors.New("invalid metrics setting")
		}
		cfg.MetricsEnabled = enabled
	case file.Metrics.Enabled != nil:
		cfg.MetricsEnabled = *file.Metrics.Enabled
	default:
		cfg.MetricsEnabled = true
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
