package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-relay/internal/config"
	"github.com/pdiddy/convert-relay/internal/provider"
	"github.com/pdiddy/convert-relay/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert a local file through the provider and print the download URL",
	Long: `Convert sends one local file to the conversion provider with the same
request the relay builds for uploads, and prints the download URL of the
converted file. It is useful for checking credentials and provider
behaviour without running the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("to")
		asJSON, _ := cmd.Flags().GetBool("json")
		if target == "" {
			return fmt.Errorf("--to is required")
		}

		cfg, err := config.Load(viper.GetViper(), loadedSecrets, userAgent())
		if err != nil {
			return err
		}

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Provider.Timeout)
		defer cancel()

		url, err := provider.NewClient(cfg.Provider).Convert(ctx, filepath.Base(path), data, target)
		if err != nil {
			return fmt.Errorf("converting %s: %w", path, err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(types.ConversionResult{DownloadURL: url})
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	convertCmd.Flags().String("to", "", "target format (e.g. pdf, png, docx)")
	convertCmd.Flags().Bool("json", false, "print the result as JSON")

	rootCmd.AddCommand(convertCmd)
}
