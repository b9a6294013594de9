package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration, loaded from a TOML file and overlaid by the environment.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify" envPrefix:"SPOTIFY_"`
	Database DatabaseConfig `toml:"database"`
	Data     DataConfig     `toml:"data"`
	Auth     AuthConfig     `toml:"auth" envPrefix:"AUTH_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
//
// resonance is a public PKCE client, so there is no client secret.
type SpotifyConfig struct {
	ClientID    string  `toml:"client_id" env:"CLIENT_ID"`
	RedirectURI string  `toml:"redirect_uri" env:"REDIRECT_URI"`
	AuthURL     string  `toml:"auth_url" env:"AUTH_URL"`
	TokenURL    string  `toml:"token_url" env:"TOKEN_URL"`
	APIURL      string  `toml:"api_url" env:"API_URL"`
	RateLimit   float64 `toml:"rate_limit" env:"RATE_LIMIT"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path string `toml:"path" env:"DB_PATH"`
}

// DataConfig locates the directory holding the credential file.
type DataConfig struct {
	Dir string `toml:"dir" env:"DATA_DIR"`
}

// AuthConfig tunes the interactive authorization flow.
type AuthConfig struct {
	CallbackTimeout Duration `toml:"callback_timeout" env:"CALLBACK_TIMEOUT"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// Duration is a [time.Duration] that decodes from strings like "90s" in both TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, s, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// TokenPath returns the location of the persisted OAuth credential file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Data.Dir, "tokens.json")
}

// Validate checks required values, returning a configuration [Error] when any are missing.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Spotify.ClientID) == "" {
		return ConfigurationError("SPOTIFY_CLIENT_ID environment variable is required")
	}
	if c.Spotify.RedirectURI == "" {
		return ConfigurationError("spotify redirect_uri must not be empty")
	}
	if c.Database.Path == "" {
		return ConfigurationError("database path must not be empty")
	}
	if c.Data.Dir == "" {
		return ConfigurationError("data directory must not be empty")
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults.
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

// ApplyEnv overlays environment variables onto config. Unset variables leave values untouched.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ResolveConfig builds the effective configuration: embedded defaults, then the file at path when it exists,
// then the environment.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
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
