package endpoints

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/export"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ExportCSVEndpoint handles GET /api/sources/{id}/export/csv.
// The response is a CSV file download of the source's ACM register.
type ExportCSVEndpoint struct{}

func (e *ExportCSVEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sources/{id}/export/csv", e.handler
}

func (e *ExportCSVEndpoint) RequiresInit() bool { return true }

func (e *ExportCSVEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	src, records, ok := exportData(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(src.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (e *ExportCSVEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export-csv <source-id>",
		Short: "Download a source's ACM register as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, _, err := client.GetRaw(cmd.Context(), "/api/sources/"+args[0]+"/export/csv")
			if err != nil {
				return err
			}
			return writeDownload(cmd, outPath, data)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// ExportXLSXEndpoint handles GET /api/sources/{id}/export/xlsx.
type ExportXLSXEndpoint struct{}

func (e *ExportXLSXEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sources/{id}/export/xlsx", e.handler
}

func (e *ExportXLSXEndpoint) RequiresInit() bool { return true }

func (e *ExportXLSXEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	src, records, ok := exportData(w, r)
	if !ok {
		return
	}

	data, err := export.WriteXLSX(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.XLSXFilename(src.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (e *ExportXLSXEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export-xlsx <source-id>",
		Short: "Download a source's ACM register as XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, _, err := client.GetRaw(cmd.Context(), "/api/sources/"+args[0]+"/export/xlsx")
			if err != nil {
				return err
			}
			if outPath == "" {
				return errors.New("--output is required for xlsx downloads")
			}
			return writeDownload(cmd, outPath, data)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file")
	return cmd
}

// exportData loads the source and its records, writing an HTTP error and
// returning ok=false on failure.
func exportData(w http.ResponseWriter, r *http.Request) (*store.Source, []*acm.Record, bool) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())

	src, err := st.GetSource(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "source not found")
			return nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}

	records, err := st.ListRecords(r.Context(), store.RecordFilter{SourceID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return src, records, true
}

// writeDownload writes data to outPath, or to stdout when outPath is empty.
func writeDownload(cmd *cobra.Command, outPath string, data []byte) error {
	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}
