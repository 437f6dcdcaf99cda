package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	MaxUpload string `toml:"max_upload"`
}

// SyncConfig controls how a reconciliation run talks to the catalog.
type SyncConfig struct {
	PlaylistTitle       string  `toml:"playlist_title"`
	PlaylistDescription string  `toml:"playlist_description"`
	ExistingLimit       int     `toml:"existing_limit"`
	Workers             int     `toml:"workers"`
	RateLimit           float64 `toml:"rate_limit"`
	Timeout             int     `toml:"timeout"`
}

// Addr returns the host:port pair the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes parses the human readable upload cap (e.g. "64 MB").
func (s ServerConfig) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(s.MaxUpload)
	if err != nil {
		return 0, fmt.Errorf("%w: server.max_upload %q: %v", ErrInvalidConfig, s.MaxUpload, err)
	}
	return int64(n), nil
}

// RequestTimeout returns the per-request catalog timeout.
func (s SyncConfig) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if c.Sync.PlaylistTitle == "" {
		return fmt.Errorf("%w: sync.playlist_title is empty", ErrInvalidConfig)
	}
	if c.Sync.ExistingLimit < 0 {
		return fmt.Errorf("%w: sync.existing_limit must be >= 0", ErrInvalidConfig)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("%w: sync.workers must be >= 1", ErrInvalidConfig)
	}
	if _, err := c.Server.MaxUploadBytes(); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
