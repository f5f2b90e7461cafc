package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/config"
	"github.com/jackzampolin/samp/internal/ingest"
	"github.com/jackzampolin/samp/internal/store"
)

var (
	ingestTitle      string
	ingestSchoolCode string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest OCR'd documents into the register database",
	Long: `Ingest one or more OCR'd text documents (.txt or .md).

The school name and code are derived from the filename when not given
explicitly. Re-ingesting a path replaces the stored content instead of
creating a duplicate source.

Examples:
  samp ingest 4021_northside_primary.txt
  samp ingest --title "Northside Primary" --school-code 4021 plan.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cm.Get().Storage.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, path := range args {
			res, err := ingest.Ingest(ctx, st, ingest.Request{
				Path:       path,
				Title:      ingestTitle,
				SchoolCode: ingestSchoolCode,
				Logger:     logger,
			})
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			verb := "created"
			if res.Updated {
				verb = "updated"
			}
			fmt.Printf("%s %s (%s)\n", verb, res.Title, res.SourceID)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "school name (derived from filename if empty)")
	ingestCmd.Flags().StringVar(&ingestSchoolCode, "school-code", "", "school code (derived from filename if present)")

	rootCmd.AddCommand(ingestCmd)
}
