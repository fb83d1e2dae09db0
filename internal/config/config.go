package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Stream    StreamConfig    `yaml:"stream"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// BrowserConfig holds browser driver configuration.
type BrowserConfig struct {
	Headless            bool   `envconfig:"BROWSER_HEADLESS" default:"true" yaml:"headless"`
	Bin                 string `envconfig:"BROWSER_BIN" default:"" yaml:"bin"`
	ViewportWidth       int    `envconfig:"VIEWPORT_WIDTH" default:"1280" yaml:"viewport_width"`
	ViewportHeight      int    `envconfig:"VIEWPORT_HEIGHT" default:"720" yaml:"viewport_height"`
	StartURL            string `envconfig:"START_URL" default:"https://www.google.com" yaml:"start_url"`
	NavigationTimeoutMs int    `envconfig:"NAVIGATION_TIMEOUT_MS" default:"30000" yaml:"navigation_timeout_ms"`
}

// NavigationTimeout returns the navigation timeout as a duration.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// StreamConfig holds frame streaming configuration.
type StreamConfig struct {
	FrameIntervalMs int `envconfig:"FRAME_INTERVAL_MS" default:"1000" yaml:"frame_interval_ms"`
	JPEGQuality     int `envconfig:"JPEG_QUALITY" default:"70" yaml:"jpeg_quality"`
	BufferSize      int `envconfig:"FRAME_BUFFER_SIZE" default:"8" yaml:"buffer_size"`
}

// FrameInterval returns the heartbeat capture interval as a duration.
func (c StreamConfig) FrameInterval() time.Duration {
	if c.FrameIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig bounds inbound input events per connection.
type RateLimitConfig struct {
	EventsPerSecond int  `envconfig:"RATE_LIMIT_EPS" default:"100" yaml:"events_per_second"`
	Burst           int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled         bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables, then applies
// overrides from a YAML file. Environment defaults fill fields the file
// leaves unset.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Browser: BrowserConfig{
			Headless:            true,
			ViewportWidth:       1280,
			ViewportHeight:      720,
			StartURL:            "https://www.google.com",
			NavigationTimeoutMs: 30000,
		},
		Stream: StreamConfig{
			FrameIntervalMs: 1000,
			JPEGQuality:     70,
			BufferSize:      8,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			EventsPerSecond: 100,
			Burst:           200,
			Enabled:         true,
		},
	}
}
