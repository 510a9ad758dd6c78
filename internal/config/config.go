// Package config provides configuration loading and structs for the predicate service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool           `yaml:"debug"`
	Server  ServerConfig   `yaml:"server"`
	Storage StorageConfig  `yaml:"storage"`
	Ranking ranking.Config `yaml:"ranking"`
	Import  ImportConfig   `yaml:"import"`
	Cache   CacheConfig    `yaml:"cache"`
}

// ImportConfig holds the inbox directories watched for candidate pools and 510(k) summaries.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// DebounceMillis is how long a file must be quiet before it is imported.
	DebounceMillis int `yaml:"debounce_millis" validate:"gte=0"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *ImportConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
	// RequestTimeoutSeconds bounds a single API request.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"gte=0"`
}

// StorageConfig holds the candidate database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CacheConfig sizes the candidate feature cache.
type CacheConfig struct {
	Size int `yaml:"size" validate:"gte=0"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate checks value ranges across all sections.
func (c *Config) Validate() error {
	if err := models.ValidateStruct(c.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := models.ValidateStruct(c.Import); err != nil {
		return fmt.Errorf("import config: %w", err)
	}
	if err := models.ValidateStruct(c.Cache); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return c.Ranking.Validate()
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
