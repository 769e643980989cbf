// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	// Host is the interface to bind (empty binds all interfaces).
	Host string `json:"host" yaml:"host"`

	// Port is the TCP port for the relay (default 3000).
	Port int `json:"port" yaml:"port"`

	// ShutdownTimeout bounds how long in-flight requests may drain on shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ProviderConfig holds settings for the external conversion API.
type ProviderConfig struct {
	// URL is the provider's convert endpoint.
	URL string `json:"url" yaml:"url"`

	// APIKey is sent as a bearer token on every outbound call.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the HTTP request timeout for the outbound call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// StoreFile asks the provider to keep the converted artifact so that the
	// returned URL stays downloadable.
	StoreFile bool `json:"store_file" yaml:"store_file"`

	// UserAgent is the User-Agent header sent with outbound requests
	// (e.g. "convert-relay/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// UploadConfig holds settings for temporary upload storage.
type UploadConfig struct {
	// Dir is the directory receiving uploaded files until they are relayed.
	Dir string `json:"dir" yaml:"dir"`

	// MaxBytes caps the size of an inbound request body.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// CORSConfig holds the cross-origin policy for the inbound endpoint.
type CORSConfig struct {
	// AllowedOrigins lists permitted origins; "*" permits any origin.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// LoggingConfig selects the structured logger's level and output format.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// RelayConfig groups every setting resolved at startup.
type RelayConfig struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Upload   UploadConfig   `json:"upload" yaml:"upload"`
	CORS     CORSConfig     `json:"cors" yaml:"cors"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}
