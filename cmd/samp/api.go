package main

import (
	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/config"
	"github.com/jackzampolin/samp/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
// Falls back to the configured server address when --server is not set.
func getServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	if cm, err := config.NewManager(cfgFile); err == nil {
		return cm.Get().ServerURL()
	}
	return "http://localhost:8585"
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All() {
		registry.Register(ep)
	}

	apiCmd := registry.BuildCommands(getServerURL)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "", "Server URL (default from config)",
	)

	rootCmd.AddCommand(apiCmd)
}
