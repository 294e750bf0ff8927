// Package config manages global settings and auth state stored under
// ~/.config/regdesk. Environment variables override the files, which
// keeps scripted use and CI simple.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIConfig holds server connection settings.
type APIConfig struct {
	URL string `json:"url"`
}

// SyncConfig holds sync behaviour settings.
type SyncConfig struct {
	PageLimit  *int  `json:"page_limit,omitempty"`   // nil = default 100
	PushOnSync *bool `json:"push_on_sync,omitempty"` // nil = default true
}

// Config is the global regdesk config stored at ~/.config/regdesk/config.json.
type Config struct {
	API  APIConfig  `json:"api"`
	Sync SyncConfig `json:"sync"`
}

// AuthCredentials stores authentication state at ~/.config/regdesk/auth.json.
type AuthCredentials struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	UserID    int64  `json:"user_id,omitempty"`
	ServerURL string `json:"server_url"`
	DeviceID  string `json:"device_id"`
}

const defaultServerURL = "http://localhost:3000"

// ConfigDir returns ~/.config/regdesk, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "regdesk")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/regdesk/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/regdesk/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads auth credentials from ~/.config/regdesk/auth.json.
// Returns nil without error when no credentials are stored.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes auth credentials to ~/.config/regdesk/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the registration server URL.
// Priority: REGDESK_API_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("REGDESK_API_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.API.URL != "" {
		return cfg.API.URL
	}
	return defaultServerURL
}

// GetToken returns the bearer token.
// Priority: REGDESK_AUTH_TOKEN env > auth.json.
func GetToken() string {
	if v := os.Getenv("REGDESK_AUTH_TOKEN"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.Token
	}
	return ""
}

// IsAuthenticated returns true if a bearer token is available.
func IsAuthenticated() bool {
	return GetToken() != ""
}

// GetPushOnSync returns whether a full sync pass includes the push stage.
// Priority: REGDESK_PUSH_ON_SYNC env > config.json sync.push_on_sync > true.
func GetPushOnSync() bool {
	if v := parseBoolEnv("REGDESK_PUSH_ON_SYNC"); v != nil {
		return *v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.PushOnSync != nil {
		return *cfg.Sync.PushOnSync
	}
	return true
}

// GetDeviceID returns the device ID from auth.json, generating one if needed.
func GetDeviceID() (string, error) {
	creds, err := LoadAuth()
	if err != nil {
		return "", err
	}
	if creds != nil && creds.DeviceID != "" {
		return creds.DeviceID, nil
	}
	return GenerateDeviceID()
}

// GenerateDeviceID creates a new random device ID (16 bytes hex).
func GenerateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := os.Getenv(envKey)
	if v == "" {
		return nil
	}
	v = strings.ToLower(v)
	if v == "1" || v == "true" {
		b := true
		return &b
	}
	if v == "0" || v == "false" {
		b := false
		return &b
	}
	return nil
}
