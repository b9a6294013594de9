package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./data/resonance.sqlite" {
			t.Errorf("expected database path ./data/resonance.sqlite, got %s", config.Database.Path)
		}

		if config.Spotify.RedirectURI != "http://localhost:8888/callback" {
			t.Errorf("expected default redirect URI, got %s", config.Spotify.RedirectURI)
		}

		if config.Spotify.ClientID != "" {
			t.Errorf("expected empty client_id, got %s", config.Spotify.ClientID)
		}

		if config.Data.Dir != "./data" {
			t.Errorf("expected data dir ./data, got %s", config.Data.Dir)
		}

		if config.Auth.CallbackTimeout.Duration != 0 {
			t.Errorf("expected no callback timeout, got %v", config.Auth.CallbackTimeout)
		}

		if config.TokenPath() != filepath.Join("./data", "tokens.json") {
			t.Errorf("unexpected token path %s", config.TokenPath())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[spotify]
client_id = "test_client_id"
redirect_uri = "http://127.0.0.1:9999/callback"

[database]
path = "/custom/path.db"

[auth]
callback_timeout = "2m"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Spotify.ClientID)
		}

		if config.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("keys missing from the file should keep defaults, got %s", config.Spotify.TokenURL)
		}

		if config.Auth.CallbackTimeout.Duration != 2*time.Minute {
			t.Errorf("expected callback timeout 2m, got %v", config.Auth.CallbackTimeout)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[spotify\nclient_id ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("ResolveConfig Environment Overrides File", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[spotify]
client_id = "from_file"

[database]
path = "/file/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		t.Setenv("SPOTIFY_CLIENT_ID", "from_env")
		t.Setenv("DATA_DIR", "/env/data")
		t.Setenv("AUTH_CALLBACK_TIMEOUT", "45s")
		t.Setenv("LOG_LEVEL", "debug")

		config, err := ResolveConfig(configPath)
		if err != nil {
			t.Fatalf("failed to resolve config: %v", err)
		}

		if config.Spotify.ClientID != "from_env" {
			t.Errorf("expected env client id, got %s", config.Spotify.ClientID)
		}
		if config.Database.Path != "/file/path.db" {
			t.Errorf("expected file db path to survive, got %s", config.Database.Path)
		}
		if config.Data.Dir != "/env/data" {
			t.Errorf("expected env data dir, got %s", config.Data.Dir)
		}
		if config.Auth.CallbackTimeout.Duration != 45*time.Second {
			t.Errorf("expected 45s callback timeout, got %v", config.Auth.CallbackTimeout)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected debug log level, got %s", config.Log.Level)
		}
	})

	t.Run("ResolveConfig Missing File Uses Defaults", func(t *testing.T) {
		t.Setenv("DB_PATH", "/env/db.sqlite")

		config, err := ResolveConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("failed to resolve config: %v", err)
		}
		if config.Database.Path != "/env/db.sqlite" {
			t.Errorf("expected env db path, got %s", config.Database.Path)
		}
		if config.Spotify.RedirectURI != "http://localhost:8888/callback" {
			t.Errorf("expected default redirect, got %s", config.Spotify.RedirectURI)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()

		err := config.Validate()
		if err == nil {
			t.Fatal("expected error for missing client id")
		}
		if KindOf(err) != KindConfiguration {
			t.Errorf("expected configuration error, got %v", KindOf(err))
		}
		if !errors.Is(err, ErrMissingConfig) {
			t.Error("expected configuration error to match ErrMissingConfig")
		}

		config.Spotify.ClientID = "abc"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})
}
