package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "samp",
	Short: "ACM register extraction from school asbestos management plans",
	Long: `samp extracts structured Asbestos Containing Material (ACM) register
records from OCR'd school compliance documents using LLM structured output.

The pipeline includes:
  - Document chunking with page-boundary awareness
  - Schema-validated LLM extraction with retry
  - Building/room context tracking across chunks
  - Validation, normalization, and deduplication
  - CSV and XLSX register export`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.samp/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
