package endpoints

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ListRunsResponse is the response for listing extraction runs.
type ListRunsResponse struct {
	Runs []*acm.RunSummary `json:"runs"`
}

// ListRunsEndpoint handles GET /api/runs.
// Supports a source_id query parameter.
type ListRunsEndpoint struct{}

func (e *ListRunsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs", e.handler
}

func (e *ListRunsEndpoint) RequiresInit() bool { return true }

func (e *ListRunsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	runs, err := st.ListRuns(r.Context(), r.URL.Query().Get("source_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

func (e *ListRunsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var sourceID string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List extraction run summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/runs"
			if sourceID != "" {
				path += "?" + url.Values{"source_id": {sourceID}}.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp ListRunsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "filter by source ID")
	return cmd
}

// LatestRunEndpoint handles GET /api/sources/{id}/runs/latest.
type LatestRunEndpoint struct{}

func (e *LatestRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sources/{id}/runs/latest", e.handler
}

func (e *LatestRunEndpoint) RequiresInit() bool { return true }

func (e *LatestRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())
	run, err := st.LatestRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no runs for source")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (e *LatestRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "latest-run <source-id>",
		Short: "Get the most recent extraction run for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp acm.RunSummary
			if err := client.Get(cmd.Context(), "/api/sources/"+args[0]+"/runs/latest", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
