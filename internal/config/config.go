// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the relay's settings once at startup. Values come
// from defaults, an optional YAML file, a .env file, CONVERT_RELAY_* environment
// variables and command flags, in increasing precedence; the provider API key
// also falls back to the secrets directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-relay/internal/provider"
	"github.com/pdiddy/convert-relay/pkg/types"
)

// EnvPrefix namespaces environment overrides, e.g. CONVERT_RELAY_SERVER_PORT.
const EnvPrefix = "CONVERT_RELAY"

// SecretAPIKey is the secrets-directory file holding the provider API key.
const SecretAPIKey = "api2convert-api-key"

// Configuration keys.
const (
	KeyServerHost            = "server.host"
	KeyServerPort            = "server.port"
	KeyServerShutdownTimeout = "server.shutdown_timeout"
	KeyProviderURL           = "provider.url"
	KeyProviderAPIKey        = "provider.api_key"
	KeyProviderTimeout       = "provider.timeout"
	KeyProviderStoreFile     = "provider.store_file"
	KeyUploadDir             = "upload.dir"
	KeyUploadMaxBytes        = "upload.max_bytes"
	KeyCORSAllowedOrigins    = "cors.allowed_origins"
	KeyLoggingLevel          = "logging.level"
	KeyLoggingFormat         = "logging.format"
)

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerHost, "")
	v.SetDefault(KeyServerPort, 3000)
	v.SetDefault(KeyServerShutdownTimeout, 15*time.Second)
	v.SetDefault(KeyProviderURL, provider.DefaultURL)
	v.SetDefault(KeyProviderAPIKey, "")
	v.SetDefault(KeyProviderTimeout, 2*time.Minute)
	v.SetDefault(KeyProviderStoreFile, true)
	v.SetDefault(KeyUploadDir, "uploads")
	v.SetDefault(KeyUploadMaxBytes, int64(100<<20))
	v.SetDefault(KeyCORSAllowedOrigins, []string{"*"})
	v.SetDefault(KeyLoggingLevel, "info")
	v.SetDefault(KeyLoggingFormat, "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv exports the variables in the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads every setting from v, applies the secrets fallback for the API
// key, and validates the result. userAgent is sent on outbound calls.
func Load(v *viper.Viper, secrets map[string]string, userAgent string) (types.RelayConfig, error) {
	cfg := Resolve(v, secrets, userAgent)
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Resolve reads settings from v without validating them.
func Resolve(v *viper.Viper, secrets map[string]string, userAgent string) types.RelayConfig {
	apiKey := strings.TrimSpace(v.GetString(KeyProviderAPIKey))
	if apiKey == "" {
		apiKey = secrets[SecretAPIKey]
	}

	return types.RelayConfig{
		Server: types.ServerConfig{
			Host:            v.GetString(KeyServerHost),
			Port:            v.GetInt(KeyServerPort),
			ShutdownTimeout: v.GetDuration(KeyServerShutdownTimeout),
		},
		Provider: types.ProviderConfig{
			URL:       v.GetString(KeyProviderURL),
			APIKey:    apiKey,
			Timeout:   v.GetDuration(KeyProviderTimeout),
			StoreFile: v.GetBool(KeyProviderStoreFile),
			UserAgent: userAgent,
		},
		Upload: types.UploadConfig{
			Dir:      v.GetString(KeyUploadDir),
			MaxBytes: v.GetInt64(KeyUploadMaxBytes),
		},
		CORS: types.CORSConfig{
			AllowedOrigins: splitList(v.GetStringSlice(KeyCORSAllowedOrigins)),
		},
		Logging: types.LoggingConfig{
			Level:  strings.ToLower(v.GetString(KeyLoggingLevel)),
			Format: strings.ToLower(v.GetString(KeyLoggingFormat)),
		},
	}
}

// Validate checks a resolved configuration. The returned error is a
// validation.Errors keyed by section.
func Validate(cfg types.RelayConfig) error {
	return validation.Errors{
		"server": validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&cfg.Server.ShutdownTimeout, validation.Min(time.Duration(0))),
		),
		"provider": validation.ValidateStruct(&cfg.Provider,
			validation.Field(&cfg.Provider.URL, validation.Required, validation.By(httpURL)),
			validation.Field(&cfg.Provider.APIKey, validation.Required.Error("is required (set provider.api_key, "+
				EnvPrefix+"_PROVIDER_API_KEY or .secrets/"+SecretAPIKey+")")),
			validation.Field(&cfg.Provider.Timeout, validation.Required, validation.Min(time.Millisecond)),
		),
		"upload": validation.ValidateStruct(&cfg.Upload,
			validation.Field(&cfg.Upload.Dir, validation.Required),
			validation.Field(&cfg.Upload.MaxBytes, validation.Required, validation.Min(int64(1))),
		),
		"cors": validation.ValidateStruct(&cfg.CORS,
			validation.Field(&cfg.CORS.AllowedOrigins, validation.Required),
		),
		"logging": validation.ValidateStruct(&cfg.Logging,
			validation.Field(&cfg.Logging.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&cfg.Logging.Format, validation.In("text", "json")),
		),
	}.Filter()
}

// Redacted returns a copy of cfg safe to print.
func Redacted(cfg types.RelayConfig) types.RelayConfig {
	if cfg.Provider.APIKey != "" {
		cfg.Provider.APIKey = "REDACTED"
	}
	return cfg
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http or https URL")
	}
	return nil
}

// splitList flattens comma-separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
