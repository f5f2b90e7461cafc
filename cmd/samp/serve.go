package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/config"
	"github.com/jackzampolin/samp/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the samp server",
	Long: `Start the samp HTTP server.

The server opens the SQLite register database, starts the extraction
job runner, and (when configured) watches the inbox directory for
dropped documents.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (includes database status)

Examples:
  samp serve                     # Start on default port 8585
  samp serve --port 3000         # Start on custom port
  samp serve --host 0.0.0.0      # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		cfg := cm.Get()
		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = strconv.Itoa(cfg.Server.Port)
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			DatabasePath:  cfg.Storage.DatabasePath,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
