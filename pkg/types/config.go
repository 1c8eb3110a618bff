package types

import "time"

// HTTPConfig holds shared HTTP settings used by every outbound client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cookbook/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig locates the local recipe store.
type StoreConfig struct {
	// BaseURL is the root of the store's REST interface
	// (e.g. "http://localhost:5000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// ProviderConfig holds settings for the external recipe provider.
type ProviderConfig struct {
	// BaseURL is the provider API root (default https://api.spoonacular.com).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as the apiKey query parameter. It may also be loaded from
	// .secrets/spoonacular-api-key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RatePerSecond caps outbound requests per second (0 disables pacing).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// SearchLimit is the number of results requested per search (default 12).
	SearchLimit int `json:"search_limit" yaml:"search_limit" mapstructure:"search_limit"`
}

// CacheConfig controls the external detail cache.
type CacheConfig struct {
	// MaxEntries bounds the cache with least-recently-used eviction.
	// Zero keeps every entry for the life of the process.
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`
}

// BookConfig controls the book view.
type BookConfig struct {
	// ResetOnModeSwitch returns to the cover when switching between the
	// favorites and mine lists. When false the page index is clamped instead.
	ResetOnModeSwitch bool `json:"reset_on_mode_switch" yaml:"reset_on_mode_switch" mapstructure:"reset_on_mode_switch"`
}

// SessionConfig locates the persisted session file.
type SessionConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig holds settings for the bundled store server.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// DataDir holds the SQLite database.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// Seed is an optional YAML or JSON file imported at startup.
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// LoggingConfig selects the log level (debug, info, warn, error) and
// handler format (text, json).
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every section of cookbook.yaml.
type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Provider ProviderConfig `json:"provider" yaml:"provider" mapstructure:"provider"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Book     BookConfig     `json:"book" yaml:"book" mapstructure:"book"`
	Session  SessionConfig  `json:"session" yaml:"session" mapstructure:"session"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}
