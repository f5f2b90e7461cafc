package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/jobs"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ExtractRequest is the optional body for starting an extraction.
type ExtractRequest struct {
	Model string `json:"model,omitempty"`
	Force bool   `json:"force,omitempty"`
}

// ExtractResponse is returned when an extraction job is accepted.
type ExtractResponse struct {
	JobID    string `json:"job_id"`
	SourceID string `json:"source_id"`
	Status   string `json:"status"`
}

// ExtractEndpoint handles POST /api/sources/{id}/extract.
// The extraction runs asynchronously; poll the job for completion.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sources/{id}/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ExtractRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if r.URL.Query().Get("force") == "true" {
		req.Force = true
	}

	runner := svcctx.JobRunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "job runner not initialized")
		return
	}

	job, err := runner.SubmitModel(r.Context(), id, req.Model, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "source not found")
		case errors.Is(err, jobs.ErrSourceBusy):
			writeError(w, http.StatusConflict, "extraction already running for this source")
		case errors.Is(err, jobs.ErrAlreadyExtracted):
			writeError(w, http.StatusConflict, "source already has extracted records; use force=true to re-extract")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ExtractResponse{
		JobID:    job.ID,
		SourceID: job.SourceID,
		Status:   string(job.Status),
	})
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		force bool
		model string
	)
	cmd := &cobra.Command{
		Use:   "extract <source-id>",
		Short: "Start ACM extraction for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := ExtractRequest{Model: model, Force: force}
			var resp ExtractResponse
			if err := client.Post(cmd.Context(), "/api/sources/"+args[0]+"/extract", req, &resp); err != nil {
				return err
			}
			fmt.Printf("Job %s queued for source %s\n", resp.JobID, resp.SourceID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-extract even if records already exist")
	cmd.Flags().StringVar(&model, "model", "", "model override for this run")
	return cmd
}
