// Package config loads configuration in three layers: built-in defaults, an
// optional YAML file, then EAGLEAI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/store"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/validation"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "EAGLEAI_"
	// PathEnvVar points at the YAML file when no explicit path is given.
	PathEnvVar = EnvPrefix + "CONFIG"
	// DefaultPath is read when present and nothing else is configured.
	DefaultPath = "eagleai.yaml"
)

// Config is the full process configuration.
type Config struct {
	Dataset DatasetConfig `koanf:"dataset"`
	Store   store.Config  `koanf:"store"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// DatasetConfig locates the training CSV.
type DatasetConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LoggingConfig maps onto logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the Prometheus textfile written after each command.
type MetricsConfig struct {
	// Textfile is a node_exporter textfile path. Empty disables the export.
	Textfile string `koanf:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{Path: "rutinas.csv"},
		Store:   store.DefaultConfig(),
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// envKeys maps environment suffixes to config paths. Unlisted variables are ignored.
var envKeys = map[string]string{
	"dataset_path":         "dataset.path",
	"store_driver":         "store.driver",
	"store_dir":            "store.dir",
	"store_badger_path":    "store.badger_path",
	"s3_bucket":            "store.s3.bucket",
	"s3_region":            "store.s3.region",
	"s3_endpoint":          "store.s3.endpoint",
	"s3_prefix":            "store.s3.prefix",
	"s3_path_style":        "store.s3.path_style",
	"s3_access_key_id":     "store.s3.access_key_id",
	"s3_secret_access_key": "store.s3.secret_access_key",
	"s3_session_token":     "store.s3.session_token",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
	"log_caller":           "logging.caller",
	"metrics_textfile":     "metrics.textfile",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envKeys[key]
}

// Load builds the configuration. path overrides EAGLEAI_CONFIG; an explicit
// path that does not exist is an error, the default one is optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(PathEnvVar)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Store.Driver == store.DriverS3 && c.Store.S3.Bucket == "" {
		return errors.New("store.s3.bucket is required for the s3 driver")
	}
	return nil
}

// LoggerConfig returns the logger settings, writing to stderr.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}
