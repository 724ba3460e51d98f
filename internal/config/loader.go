package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/bracketry/internal/domain/swiss"
)

// Environment variables read by Load.
const (
	EnvPrefix  = "BRACKETRY_"
	EnvFile    = "BRACKETRY_CONFIG"
	EnvDotFile = "BRACKETRY_ENV_FILE"
)

const defaultDotFile = ".env"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BRACKETRY_CONFIG is set
//  3. env (prefix BRACKETRY_), including a dotenv file when one is found
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BRACKETRY_STORE_DRIVER -> store_driver. Underscores are kept so the
	// flat keys match the koanf tags.
	prefix := strings.ToLower(EnvPrefix)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), prefix)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports the variables of BRACKETRY_ENV_FILE, or of ./.env when
// that is unset. Variables already in the environment win. A missing default
// file is not an error.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(EnvDotFile)
	if !explicit || path == "" {
		path, explicit = defaultDotFile, false
	}
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxParticipants < 2:
		return fmt.Errorf("%w: max_participants must be at least 2", ErrInvalidConfig)
	case c.GenerationWorkers < 1:
		return fmt.Errorf("%w: generation_workers must be positive", ErrInvalidConfig)
	case c.ShutdownTimeoutSeconds < 0:
		return fmt.Errorf("%w: shutdown_timeout_seconds must not be negative", ErrInvalidConfig)
	case !knownSwissMethod(c.DefaultSwissMethod):
		return fmt.Errorf("%w: unknown default_swiss_method %q", ErrInvalidConfig, c.DefaultSwissMethod)
	}
	return nil
}

func knownSwissMethod(s string) bool {
	_, err := swiss.ParseMethod(s)
	return err == nil
}
