package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// ListSourcesResponse is the response for listing sources.
type ListSourcesResponse struct {
	Sources []*store.Source `json:"sources"`
}

// ListSourcesEndpoint handles GET /api/sources.
type ListSourcesEndpoint struct{}

func (e *ListSourcesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sources", e.handler
}

func (e *ListSourcesEndpoint) RequiresInit() bool { return true }

func (e *ListSourcesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	sources, err := st.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListSourcesResponse{Sources: sources})
}

func (e *ListSourcesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListSourcesResponse
			if err := client.Get(cmd.Context(), "/api/sources", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetSourceEndpoint handles GET /api/sources/{id}.
type GetSourceEndpoint struct{}

func (e *GetSourceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sources/{id}", e.handler
}

func (e *GetSourceEndpoint) RequiresInit() bool { return true }

func (e *GetSourceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())
	src, err := st.GetSource(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Content can be megabytes of OCR text; only return it on request.
	if r.URL.Query().Get("content") != "true" {
		src.Content = ""
	}
	writeJSON(w, http.StatusOK, src)
}

func (e *GetSourceEndpoint) Command(getServerURL func() string) *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "source <id>",
		Short: "Get a document by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/sources/" + args[0]
			if withContent {
				path += "?content=true"
			}
			var resp store.Source
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "include the full document text")
	return cmd
}

// CreateSourceRequest is the body for creating a source.
type CreateSourceRequest struct {
	Title      string `json:"title"`
	SchoolCode string `json:"school_code,omitempty"`
	Content    string `json:"content"`
}

// CreateSourceEndpoint handles POST /api/sources.
type CreateSourceEndpoint struct{}

func (e *CreateSourceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sources", e.handler
}

func (e *CreateSourceEndpoint) RequiresInit() bool { return true }

func (e *CreateSourceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	src := &store.Source{
		Title:      req.Title,
		SchoolCode: req.SchoolCode,
		Content:    req.Content,
	}
	if err := st.CreateSource(r.Context(), src); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	src.Content = ""
	writeJSON(w, http.StatusCreated, src)
}

func (e *CreateSourceEndpoint) Command(getServerURL func() string) *cobra.Command {
	var schoolCode string
	cmd := &cobra.Command{
		Use:   "create-source <title> <content>",
		Short: "Create a document from raw text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := CreateSourceRequest{Title: args[0], Content: args[1], SchoolCode: schoolCode}
			var resp store.Source
			if err := client.Post(cmd.Context(), "/api/sources", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&schoolCode, "school-code", "", "school code for the document")
	return cmd
}

// DeleteSourceEndpoint handles DELETE /api/sources/{id}.
// Extracted records are removed with the source via cascade.
type DeleteSourceEndpoint struct{}

func (e *DeleteSourceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/sources/{id}", e.handler
}

func (e *DeleteSourceEndpoint) RequiresInit() bool { return true }

func (e *DeleteSourceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteSource(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (e *DeleteSourceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-source <id>",
		Short: "Delete a document and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/sources/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
