// Package config loads the aps configuration from a YAML file with
// environment variable overrides. A .env file is loaded first when
// present, so local development can override without exporting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openmes/aps/pkg/engine"
)

// EngineConfig describes how to reach the optimization engine and which
// solver parameters to send by default.
type EngineConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Algorithm     string        `yaml:"algorithm"`
	TimeBudgetSec int           `yaml:"time_budget_sec"`
	Seed          int64         `yaml:"seed"`
}

// DatabaseConfig describes the backing database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Config is the full aps configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Database DatabaseConfig `yaml:"database"`
}

// Default returns the configuration used when no file or overrides are
// supplied.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			BaseURL:       "http://localhost:8089",
			Timeout:       60 * time.Second,
			Algorithm:     engine.DefaultAlgorithm,
			TimeBudgetSec: engine.DefaultTimeBudgetSec,
			Seed:          engine.DefaultSeed,
		},
		Database: DatabaseConfig{
			DSN: "aps.db",
		},
	}
}

// Load reads the YAML file at path (missing file is not an error) and
// applies environment overrides:
//
//	APS_ENGINE_URL, APS_ENGINE_TIMEOUT, APS_ENGINE_ALGORITHM,
//	APS_ENGINE_BUDGET_SEC, APS_ENGINE_SEED, APS_DB_DSN
func Load(path string) (Config, error) {
	// .env is optional; only a malformed file is an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Engine.BaseURL == "" {
		return Config{}, fmt.Errorf("aps: engine base URL must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("APS_ENGINE_URL"); v != "" {
		cfg.Engine.BaseURL = v
	}
	if v := os.Getenv("APS_ENGINE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse APS_ENGINE_TIMEOUT: %w", err)
		}
		cfg.Engine.Timeout = d
	}
	if v := os.Getenv("APS_ENGINE_ALGORITHM"); v != "" {
		cfg.Engine.Algorithm = v
	}
	if v := os.Getenv("APS_ENGINE_BUDGET_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse APS_ENGINE_BUDGET_SEC: %w", err)
		}
		cfg.Engine.TimeBudgetSec = n
	}
	if v := os.Getenv("APS_ENGINE_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse APS_ENGINE_SEED: %w", err)
		}
		cfg.Engine.Seed = n
	}
	if v := os.Getenv("APS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	return nil
}
