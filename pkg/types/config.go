// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single backend call. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "requirements-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LocalBackendConfig configures the locally hosted inference server
// (an Ollama-compatible HTTP API).
type LocalBackendConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the server root (default "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model tag reported when the server does not echo one.
	Model string `json:"model" yaml:"model"`
}

// CloudProvider identifies the remote API behind the cloud backend.
type CloudProvider string

const (
	ProviderOpenAI CloudProvider = "openai"
	ProviderGemini CloudProvider = "gemini"
)

// CloudBackendConfig configures the remote text-generation API.
type CloudBackendConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects openai (or any OpenAI-compatible endpoint) or gemini.
	Provider CloudProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini", "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// BackendConfig groups both backend configurations.
type BackendConfig struct {
	Local LocalBackendConfig `json:"local" yaml:"local"`
	Cloud CloudBackendConfig `json:"cloud" yaml:"cloud"`
}

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	// Driver is "sqlite3" (default) or "pgx".
	Driver string `json:"driver" yaml:"driver"`

	// DSN is a file path for sqlite3 or a connection string for pgx.
	DSN string `json:"dsn" yaml:"dsn"`

	// CacheSize is the number of artifacts kept in the read cache (default 256).
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// GenerationConfig holds defaults applied to requests that leave fields empty.
type GenerationConfig struct {
	DefaultStandard TemplateStandard `json:"default_standard" yaml:"default_standard"`
	DefaultStyle    ProcessStyle     `json:"default_style" yaml:"default_style"`
	DefaultLanguage string           `json:"default_language" yaml:"default_language"`
	DefaultBackend  BackendChoice    `json:"default_backend" yaml:"default_backend"`
}

// ServerConfig holds settings for the HTTP adapter.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// AppConfig groups all configuration for the service.
type AppConfig struct {
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Backends   BackendConfig    `json:"backends" yaml:"backends"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

// WithDefaults returns a copy of cfg with empty generation defaults filled in.
func (cfg GenerationConfig) WithDefaults() GenerationConfig {
	if cfg.DefaultStandard == "" {
		cfg.DefaultStandard = StandardIEEE
	}
	if cfg.DefaultStyle == "" {
		cfg.DefaultStyle = StyleWaterfall
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "English"
	}
	if cfg.DefaultBackend == "" {
		cfg.DefaultBackend = BackendLocal
	}
	return cfg
}
