package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/convert-relay/internal/config"
	"github.com/pdiddy/convert-relay/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config resolves settings the same way serve does and prints them as YAML
with the API key redacted. Validation problems are reported on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Resolve(viper.GetViper(), loadedSecrets, userAgent())
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}

		out, err := yaml.Marshal(configView(config.Redacted(cfg)))
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// configView renders durations as strings so the output can be pasted into
// convert-relay.yaml.
func configView(cfg types.RelayConfig) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"host":             cfg.Server.Host,
			"port":             cfg.Server.Port,
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		},
		"provider": map[string]any{
			"url":        cfg.Provider.URL,
			"api_key":    cfg.Provider.APIKey,
			"timeout":    cfg.Provider.Timeout.String(),
			"store_file": cfg.Provider.StoreFile,
		},
		"upload": map[string]any{
			"dir":       cfg.Upload.Dir,
			"max_bytes": cfg.Upload.MaxBytes,
		},
		"cors": map[string]any{
			"allowed_origins": cfg.CORS.AllowedOrigins,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
