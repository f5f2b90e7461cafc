package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/config"
	"github.com/jackzampolin/samp/internal/ingest"
	"github.com/jackzampolin/samp/internal/jobs"
	"github.com/jackzampolin/samp/internal/providers"
	"github.com/jackzampolin/samp/internal/store"
)

var (
	extractForce    bool
	extractProvider string
	extractFile     string
	extractTitle    string
	extractCode     string
)

var extractCmd = &cobra.Command{
	Use:   "extract [source-id]",
	Short: "Run ACM extraction for a document (no server required)",
	Long: `Run the extraction pipeline synchronously against a stored document.

This opens the database directly and blocks until the run finishes,
then prints the run summary. Use this for one-off extractions; use
'samp api extract' against a running server for background jobs.

With --file, the document is ingested first and then extracted:

  samp extract --file 4021_northside_primary.txt
  samp extract --file plan.md --title "Northside Primary" --school-code 4021`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if extractFile == "" && len(args) == 0 {
			return fmt.Errorf("a source ID or --file is required")
		}
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		st, err := store.Open(ctx, cfg.Storage.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToProviderRegistryConfig())

		provider := extractProvider
		if provider == "" {
			provider = cfg.Defaults.LLMProvider
		}
		opts := jobs.Options{
			Provider:      provider,
			ContextWindow: cfg.Extraction.ContextWindow,
		}
		if pc, ok := cfg.GetLLMProvider(provider); ok {
			opts.Model = pc.Model
		}

		sourceID := ""
		force := extractForce
		if len(args) > 0 {
			sourceID = args[0]
		}
		if extractFile != "" {
			res, err := ingest.Ingest(ctx, st, ingest.Request{
				Path:       extractFile,
				Title:      extractTitle,
				SchoolCode: extractCode,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			sourceID = res.SourceID
			// Re-ingesting refreshed the content; extract it again.
			if res.Updated {
				force = true
			}
		}

		runner := jobs.NewRunner(st, registry, opts, logger)
		summary, err := runner.RunSync(ctx, sourceID, force)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		return api.Output(summary)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "re-extract even if records already exist")
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "LLM provider to use (default from config)")
	extractCmd.Flags().StringVar(&extractFile, "file", "", "ingest this document before extracting")
	extractCmd.Flags().StringVar(&extractTitle, "title", "", "school name for --file (derived from filename if empty)")
	extractCmd.Flags().StringVar(&extractCode, "school-code", "", "school code for --file")

	rootCmd.AddCommand(extractCmd)
}
