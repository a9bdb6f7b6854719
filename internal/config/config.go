// Package config loads the dashboard configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Chat      ChatConfig      `yaml:"chat"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Assistant AssistantConfig `yaml:"assistant"`
	LogLevel  string          `yaml:"log_level"`
}

// BackendConfig points at the external REST backend
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChatConfig points at the Socket.IO chat gateway
type ChatConfig struct {
	URL               string        `yaml:"url"`
	Namespace         string        `yaml:"namespace"`
	TypingTimeout     time.Duration `yaml:"typing_timeout"`
	ReconnectAttempts uint          `yaml:"reconnect_attempts"`
}

// RendererConfig points at the external invoice PDF renderer
type RendererConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where the session store lives
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DashboardConfig holds the per-dashboard behaviour
type DashboardConfig struct {
	RestaurantSlug string        `yaml:"restaurant_slug"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	TaxRate        string        `yaml:"tax_rate"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// ServerConfig configures the dashboard HTTP service
type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// AssistantConfig configures the ticket reply assistant
type AssistantConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Token    string `yaml:"token"`
	BaseURL  string `yaml:"base_url"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: 10 * time.Second,
		},
		Chat: ChatConfig{
			URL:               "ws://localhost:8000",
			Namespace:         "/",
			TypingTimeout:     3 * time.Second,
			ReconnectAttempts: 5,
		},
		Renderer: RendererConfig{
			URL:     "http://localhost:3001/render/invoice",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "maitred.db",
		},
		Dashboard: DashboardConfig{
			PollInterval: 5 * time.Second,
			TaxRate:      "0.05",
			CacheTTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Assistant: AssistantConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MAITRED_BACKEND_URL":     &c.Backend.BaseURL,
		"MAITRED_CHAT_URL":        &c.Chat.URL,
		"MAITRED_RENDERER_URL":    &c.Renderer.URL,
		"MAITRED_STORAGE_DRIVER":  &c.Storage.Driver,
		"MAITRED_STORAGE_DSN":     &c.Storage.DSN,
		"MAITRED_RESTAURANT_SLUG": &c.Dashboard.RestaurantSlug,
		"MAITRED_TAX_RATE":        &c.Dashboard.TaxRate,
		"MAITRED_JWT_SECRET":      &c.Server.JWTSecret,
		"MAITRED_ASSISTANT_TOKEN": &c.Assistant.Token,
		"MAITRED_ASSISTANT_MODEL": &c.Assistant.Model,
		"MAITRED_LOG_LEVEL":       &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("MAITRED_POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MAITRED_POLL_INTERVAL: %w", err)
		}
		c.Dashboard.PollInterval = d
	}
	if v, ok := lookup("MAITRED_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAITRED_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the values the rest of the program relies on
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("dashboard.poll_interval must be positive")
	}
	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if c.Assistant.Enabled {
		if c.Assistant.Token == "" {
			return fmt.Errorf("assistant.token is required when the assistant is enabled")
		}
		switch c.Assistant.Provider {
		case "openai", "github_models":
		case "azure":
			if c.Assistant.BaseURL == "" {
				return fmt.Errorf("assistant.base_url is required for the azure provider")
			}
		default:
			return fmt.Errorf("unsupported assistant provider %q", c.Assistant.Provider)
		}
	}
	return nil
}
