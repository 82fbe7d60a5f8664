package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all mailstash configuration.
type Config struct {
	Gmail    GmailConfig    `toml:"gmail"`
	Sync     SyncConfig     `toml:"sync"`
	Auth     AuthConfig     `toml:"auth"`
	Accounts AccountsConfig `toml:"accounts"`
}

// GmailConfig holds the OAuth client identity sources, tried in order:
// explicit client ID/secret, a client-secrets JSON file, Google Secret
// Manager. No credentials are embedded in the binary.
type GmailConfig struct {
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	CredentialsPath string `toml:"credentials_path"`
	GCPProjectID    string `toml:"gcp_project_id"`
	GCPSecretID     string `toml:"gcp_secret_id"`
}

// SyncConfig holds sync defaults.
type SyncConfig struct {
	DefaultCount int `toml:"default_count"`
}

// AuthConfig selects where credential blobs live: "keyring" (OS keyring) or
// "db" (the SQLite database, for headless hosts without a secret service).
type AuthConfig struct {
	CredentialStore string `toml:"credential_store"`
}

// AccountsConfig holds account selection settings.
type AccountsConfig struct {
	Default string `toml:"default"`
}

func defaults() Config {
	return Config{
		Gmail: GmailConfig{
			CredentialsPath: "credentials.json",
		},
		Sync: SyncConfig{
			DefaultCount: 100,
		},
		Auth: AuthConfig{
			CredentialStore: "keyring",
		},
	}
}

// Load reads config from path, merging over defaults. A missing file is not
// an error. Environment variables GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET
// override the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("GMAIL_CLIENT_ID"); v != "" {
		cfg.Gmail.ClientID = v
	}
	if v := os.Getenv("GMAIL_CLIENT_SECRET"); v != "" {
		cfg.Gmail.ClientSecret = v
	}

	return &cfg, nil
}

// ConfigDir returns the mailstash config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailstash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mailstash")
}

// DataDir returns the mailstash data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailstash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailstash")
}
