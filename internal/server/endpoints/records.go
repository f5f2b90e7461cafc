package endpoints

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ListRecordsResponse is the response for listing ACM records.
type ListRecordsResponse struct {
	Records []*acm.Record `json:"records"`
	Count   int           `json:"count"`
}

// ListRecordsEndpoint handles GET /api/records.
// Supports source_id, building_id, room_id, result, confidence,
// limit, and offset query parameters.
type ListRecordsEndpoint struct{}

func (e *ListRecordsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/records", e.handler
}

func (e *ListRecordsEndpoint) RequiresInit() bool { return true }

func (e *ListRecordsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RecordFilter{
		SourceID:   q.Get("source_id"),
		BuildingID: q.Get("building_id"),
		RoomID:     q.Get("room_id"),
		Result:     q.Get("result"),
		Confidence: acm.Confidence(q.Get("confidence")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	st := svcctx.StoreFrom(r.Context())
	records, err := st.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{Records: records, Count: len(records)})
}

func (e *ListRecordsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		sourceID   string
		buildingID string
		result     string
		confidence string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List extracted ACM records",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if sourceID != "" {
				params.Set("source_id", sourceID)
			}
			if buildingID != "" {
				params.Set("building_id", buildingID)
			}
			if result != "" {
				params.Set("result", result)
			}
			if confidence != "" {
				params.Set("confidence", confidence)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/records"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListRecordsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "filter by source ID")
	cmd.Flags().StringVar(&buildingID, "building", "", "filter by building ID")
	cmd.Flags().StringVar(&result, "result", "", "filter by result (Detected, Not Detected, Presumed, Unknown)")
	cmd.Flags().StringVar(&confidence, "confidence", "", "filter by extraction confidence (high, medium, low)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to return")
	return cmd
}

// GetRecordEndpoint handles GET /api/records/{id}.
type GetRecordEndpoint struct{}

func (e *GetRecordEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/records/{id}", e.handler
}

func (e *GetRecordEndpoint) RequiresInit() bool { return true }

func (e *GetRecordEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())
	rec, err := st.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (e *GetRecordEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "record <id>",
		Short: "Get an ACM record by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp acm.Record
			if err := client.Get(cmd.Context(), "/api/records/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
