// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the convert-relay CLI. The serve
// command runs the HTTP relay; convert performs a one-shot conversion through
// the same provider client.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-relay/internal/config"
	"github.com/pdiddy/convert-relay/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// userAgent identifies the relay on outbound provider calls.
func userAgent() string {
	return "convert-relay/" + version
}

// rootCmd is the base command for the convert-relay CLI.
var rootCmd = &cobra.Command{
	Use:   "convert-relay",
	Short: "Relay file uploads to a file-conversion API",
	Long: `convert-relay accepts a file and a target format over HTTP, forwards the
file to a file-conversion provider (api2convert by default), and returns the
download URL of the converted file.

Settings come from convert-relay.yaml, a .env file, CONVERT_RELAY_* environment
variables and flags. The provider API key may also be placed in
.secrets/api2convert-api-key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	config.SetDefaults(viper.GetViper())
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./convert-relay.yaml or ~/.config/convert-relay/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	viper.BindPFlag(config.KeyLoggingLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyLoggingFormat, rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("convert-relay")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "convert-relay"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
