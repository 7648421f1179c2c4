// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/colophon/internal/logging"
	"github.com/sydlexius/colophon/internal/source"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Sources SourcesConfig  `yaml:"sources"`
	Logging logging.Config `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// SourcesConfig enables or disables the bibliographic sources and carries
// their adapter-local settings.
type SourcesConfig struct {
	OpenLibrary       SourceConfig      `yaml:"openlibrary"`
	GoogleBooks       GoogleBooksConfig `yaml:"googlebooks"`
	WebSearch         SourceConfig      `yaml:"duckduckgo"`
	LibraryOfCongress SourceConfig      `yaml:"loc"`
}

// SourceConfig holds settings common to all sources.
type SourceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GoogleBooksConfig holds Google Books settings. The API key is optional;
// without one the adapter uses the public unauthenticated quota.
type GoogleBooksConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// Options converts the per-source flags into fetch options.
func (s SourcesConfig) Options() source.Options {
	return source.Options{
		OpenLibrary:       s.OpenLibrary.Enabled,
		GoogleBooks:       s.GoogleBooks.Enabled,
		WebSearch:         s.WebSearch.Enabled,
		LibraryOfCongress: s.LibraryOfCongress.Enabled,
	}
}

// Default returns a Config with sensible defaults: every source enabled,
// JSON logging at info level.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			BasePath: "/",
		},
		Sources: SourcesConfig{
			OpenLibrary:       SourceConfig{Enabled: true},
			GoogleBooks:       GoogleBooksConfig{Enabled: true},
			WebSearch:         SourceConfig{Enabled: true},
			LibraryOfCongress: SourceConfig{Enabled: true},
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("CP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CP_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	envBool("CP_OPENLIBRARY_ENABLED", &c.Sources.OpenLibrary.Enabled)
	envBool("CP_GOOGLEBOOKS_ENABLED", &c.Sources.GoogleBooks.Enabled)
	envBool("CP_DUCKDUCKGO_ENABLED", &c.Sources.WebSearch.Enabled)
	envBool("CP_LOC_ENABLED", &c.Sources.LibraryOfCongress.Enabled)
	if v := os.Getenv("CP_GOOGLEBOOKS_API_KEY"); v != "" {
		c.Sources.GoogleBooks.APIKey = v
	}
	if v := os.Getenv("CP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CP_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CP_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func envBool(name string, target *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
