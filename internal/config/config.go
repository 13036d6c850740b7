// Package config loads the settings of the meters demo.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Alp4ka/keyset"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Environment variables overriding the file settings.
const (
	EnvDBDriver  = "METERS_DB_DRIVER"
	EnvDBDSN     = "METERS_DB_DSN"
	EnvPageLimit = "METERS_PAGE_LIMIT"
	EnvLogFormat = "METERS_LOG_FORMAT"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DB   DBConfig   `yaml:"db"`
	Page PageConfig `yaml:"page"`
	Log  LogConfig  `yaml:"log"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type PageConfig struct {
	// Limit is the page size of the list command. keyset.NoLimit lists
	// everything at once; 0 yields empty pages.
	Limit int `yaml:"limit"`
}

type LogConfig struct {
	Format string `yaml:"format"`
}

// Default returns the settings used when neither a file nor the environment
// says otherwise: a local SQLite database and pages of three meters.
func Default() *Config {
	return &Config{
		DB: DBConfig{
			Driver: DriverSQLite,
			DSN:    "meters.db",
		},
		Page: PageConfig{Limit: 3},
		Log:  LogConfig{Format: LogFormatText},
	}
}

// LoadDotEnv loads variables from a .env file. A missing file is not an
// error.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Debug("Skipping .env ...", "path", path, "error", err)
	}
}

// Load reads the YAML file at path (if path is not empty) on top of the
// defaults and then applies environment overrides.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open config file: %w", err)
		}
		defer f.Close()

		if err = cfg.decode(f); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvDBDriver); ok && v != "" {
		c.DB.Driver = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookupEnv(EnvDBDSN); ok && v != "" {
		c.DB.DSN = v
	}

	if v, ok := lookupEnv(EnvPageLimit); ok && v != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be a number: %w", ErrInvalidConfig, EnvPageLimit, err)
		}
		c.Page.Limit = limit
	}

	if v, ok := lookupEnv(EnvLogFormat); ok && v != "" {
		c.Log.Format = strings.ToLower(strings.TrimSpace(v))
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown db driver '%s'", ErrInvalidConfig, c.DB.Driver)
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("%w: db dsn is empty", ErrInvalidConfig)
	}

	if c.Page.Limit < keyset.NoLimit {
		return fmt.Errorf("%w: page limit must be >= %d, got %d", ErrInvalidConfig, keyset.NoLimit, c.Page.Limit)
	}

	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: unknown log format '%s'", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}
