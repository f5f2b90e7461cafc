package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ListJobsResponse is the response for listing extraction jobs.
type ListJobsResponse struct {
	Jobs []*store.Job `json:"jobs"`
}

// ListJobsEndpoint handles GET /api/jobs.
// Supports source_id and status query parameters.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs", e.handler
}

func (e *ListJobsEndpoint) RequiresInit() bool { return true }

func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := svcctx.StoreFrom(r.Context())
	jobList, err := st.ListJobs(r.Context(), q.Get("source_id"), store.JobStatus(q.Get("status")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListJobsResponse{Jobs: jobList})
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var sourceID, status string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List extraction jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if sourceID != "" {
				params.Set("source_id", sourceID)
			}
			if status != "" {
				params.Set("status", status)
			}
			path := "/api/jobs"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "filter by source ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (queued, running, completed, failed, cancelled)")
	return cmd
}

// GetJobEndpoint handles GET /api/jobs/{id}.
type GetJobEndpoint struct{}

func (e *GetJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}", e.handler
}

func (e *GetJobEndpoint) RequiresInit() bool { return true }

func (e *GetJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())
	job, err := st.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (e *GetJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Get an extraction job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp store.Job
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CancelJobEndpoint handles POST /api/jobs/{id}/cancel.
type CancelJobEndpoint struct{}

func (e *CancelJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs/{id}/cancel", e.handler
}

func (e *CancelJobEndpoint) RequiresInit() bool { return true }

func (e *CancelJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	runner := svcctx.JobRunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "job runner not initialized")
		return
	}

	if !runner.Cancel(id) {
		writeError(w, http.StatusNotFound, "no running job with that ID")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cancelled": id})
}

func (e *CancelJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-job <id>",
		Short: "Cancel a running extraction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Post(cmd.Context(), "/api/jobs/"+args[0]+"/cancel", nil, nil); err != nil {
				return err
			}
			fmt.Printf("Cancelled %s\n", args[0])
			return nil
		},
	}
}
