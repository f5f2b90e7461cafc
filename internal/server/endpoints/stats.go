package endpoints

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// StatsEndpoint handles GET /api/stats.
// A source_id query parameter scopes the aggregation to one document.
type StatsEndpoint struct{}

func (e *StatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stats", e.handler
}

func (e *StatsEndpoint) RequiresInit() bool { return true }

func (e *StatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	stats, err := st.Stats(r.Context(), r.URL.Query().Get("source_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (e *StatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var sourceID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show register record statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/stats"
			if sourceID != "" {
				path += "?source_id=" + url.QueryEscape(sourceID)
			}
			client := api.NewClient(getServerURL())
			var resp store.RecordStats
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "scope statistics to one source")
	return cmd
}
