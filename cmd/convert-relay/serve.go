package main

import (
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convert-relay/internal/config"
	"github.com/pdiddy/convert-relay/internal/logging"
	"github.com/pdiddy/convert-relay/internal/provider"
	"github.com/pdiddy/convert-relay/internal/relay"
	"github.com/pdiddy/convert-relay/internal/server"
	"github.com/pdiddy/convert-relay/internal/upload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion relay",
	Long: `Serve listens for POST /convert requests carrying a multipart "file" and a
"target_format" field, relays each file to the conversion provider, and
responds with {"downloadUrl": ...}. Uploaded files are parked in the upload
directory only for the duration of a request.

The server drains in-flight requests on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), loadedSecrets, userAgent())
		if err != nil {
			return err
		}

		logger := logging.New(cfg.Logging, os.Stderr)
		logger.Info("convert relay starting",
			"version", version,
			"provider_url", cfg.Provider.URL,
			"upload_dir", cfg.Upload.Dir,
			"cors_origins", cfg.CORS.AllowedOrigins,
		)

		store, err := upload.NewStore(cfg.Upload.Dir)
		if err != nil {
			return err
		}
		handler := relay.NewHandler(provider.NewClient(cfg.Provider), store, logger)
		srv := server.New(cfg, handler, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		wait := gfshutdown.GracefulShutdown(cmd.Context(), cfg.Server.ShutdownTimeout,
			map[string]gfshutdown.Operation{
				"http-server": func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			},
		)

		select {
		case err := <-errCh:
			return err
		case code := <-wait:
			if err := <-errCh; err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("shutdown finished with exit code %d", code)
			}
			logger.Info("convert relay stopped")
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "", "interface to bind (default all)")
	serveCmd.Flags().Int("port", 3000, "port to listen on")
	serveCmd.Flags().String("upload-dir", "uploads", "directory for in-flight uploads")
	serveCmd.Flags().String("provider-url", provider.DefaultURL, "conversion provider endpoint")
	viper.BindPFlag(config.KeyServerHost, serveCmd.Flags().Lookup("host"))
	viper.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
	viper.BindPFlag(config.KeyUploadDir, serveCmd.Flags().Lookup("upload-dir"))
	viper.BindPFlag(config.KeyProviderURL, serveCmd.Flags().Lookup("provider-url"))

	rootCmd.AddCommand(serveCmd)
}
