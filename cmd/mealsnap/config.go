package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Supabase struct {
		URL     string `yaml:"url"`
		AnonKey string `yaml:"anon_key"`
	} `yaml:"supabase"`

	Vision struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url,omitempty"`
	} `yaml:"vision"`

	// Session is written back by -login and refreshed in place.
	Session struct {
		UserID       string    `yaml:"user_id,omitempty"`
		Email        string    `yaml:"email,omitempty"`
		AccessToken  string    `yaml:"access_token,omitempty"`
		RefreshToken string    `yaml:"refresh_token,omitempty"`
		ExpiresAt    time.Time `yaml:"expires_at,omitempty"`
	} `yaml:"session"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mealsnap.yaml"
	}
	return filepath.Join(home, ".config", "mealsnap", "config.yaml")
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
		return nil, fmt.Errorf("%s: supabase url and anon_key are required", path)
	}
	if c.Vision.Model == "" {
		c.Vision.Model = "gpt-4o-mini"
	}

	return &c, nil
}

func writeConfig(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
