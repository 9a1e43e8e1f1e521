package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/supabase"
)

// FileConfig is ~/.tourflow/config.yaml.
type FileConfig struct {
	Database  string          `yaml:"database"`
	LogLevel  string          `yaml:"log_level"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Assistant AssistantConfig `yaml:"assistant"`
}

type SupabaseConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
}

type AssistantConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	HistoryLimit  int    `yaml:"history_limit"`
}

// DefaultDir is ~/.tourflow, falling back to ./.tourflow without a home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tourflow"
	}
	return filepath.Join(home, ".tourflow")
}

func DefaultConfig() FileConfig {
	return FileConfig{
		Database: filepath.Join(DefaultDir(), "workspace.db"),
		LogLevel: "warn",
		Assistant: AssistantConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			RatePerMinute: 30,
			HistoryLimit:  20,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (FileConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config with owner-only permissions since it holds keys.
func (c FileConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c FileConfig) supabaseConfig() (supabase.Config, error) {
	var timeout time.Duration
	if c.Supabase.Timeout != "" {
		d, err := time.ParseDuration(c.Supabase.Timeout)
		if err != nil {
			return supabase.Config{}, fmt.Errorf("supabase.timeout: %w", err)
		}
		timeout = d
	}
	return supabase.Config{
		ProjectURL:  c.Supabase.URL,
		APIKey:      c.Supabase.APIKey,
		AccessToken: c.Supabase.AccessToken,
		Timeout:     timeout,
	}, nil
}

func (c FileConfig) assistantConfig() config.AssistantConfig {
	return config.AssistantConfig{
		BaseURL:       c.Assistant.BaseURL,
		APIKey:        c.Assistant.APIKey,
		Model:         c.Assistant.Model,
		Timeout:       60 * time.Second,
		RatePerMinute: c.Assistant.RatePerMinute,
		HistoryLimit:  c.Assistant.HistoryLimit,
	}
}
