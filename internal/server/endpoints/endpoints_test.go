package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/jobs"
	"github.com/jackzampolin/samp/internal/providers"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

const goodResponse = `{"records": [{
	"building_id": "A1",
	"product": "Vinyl Tiles",
	"material_description": "Grey vinyl tiles",
	"result": "Detected",
	"extraction_confidence": "high"
}]}`

// testServer wires every endpoint onto a mux with a live in-memory store,
// a mock LLM provider, and context enrichment, mirroring the real server.
func testServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	st, err := store.Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	registry := providers.NewRegistry()
	registry.RegisterLLM("mock", providers.NewMockClient(goodResponse))
	runner := jobs.NewRunner(st, registry, jobs.Options{Provider: "mock"}, nil)

	services := &svcctx.Services{
		Store:     st,
		Registry:  registry,
		JobRunner: runner,
	}

	mux := http.NewServeMux()
	for _, ep := range All() {
		method, path, handler := ep.Route()
		mux.HandleFunc(method+" "+path, handler)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	}))
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func waitForJob(t *testing.T, st *store.Store, jobID string) *store.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		switch job.Status {
		case store.JobCompleted, store.JobFailed, store.JobCancelled:
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return nil
}

func TestHealthAndStatus(t *testing.T) {
	srv, _ := testServer(t)

	var health HealthResponse
	if code := doJSON(t, "GET", srv.URL+"/health", nil, &health); code != http.StatusOK {
		t.Fatalf("health status %d", code)
	}
	if health.Status != "ok" {
		t.Fatalf("health = %+v", health)
	}

	var ready HealthResponse
	if code := doJSON(t, "GET", srv.URL+"/ready", nil, &ready); code != http.StatusOK {
		t.Fatalf("ready status %d", code)
	}
	if ready.Database != "ok" {
		t.Fatalf("ready = %+v", ready)
	}

	var status StatusResponse
	if code := doJSON(t, "GET", srv.URL+"/status", nil, &status); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(status.LLM) != 1 || status.LLM[0] != "mock" {
		t.Fatalf("llm providers = %v", status.LLM)
	}
}

func TestSourceLifecycle(t *testing.T) {
	srv, _ := testServer(t)

	var created store.Source
	code := doJSON(t, "POST", srv.URL+"/api/sources", CreateSourceRequest{
		Title:      "Northside Primary",
		SchoolCode: "4021",
		Content:    "## A1 - Main Block\nvinyl tiles",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if created.ID == "" || created.Content != "" {
		t.Fatalf("created = %+v", created)
	}

	var list ListSourcesResponse
	doJSON(t, "GET", srv.URL+"/api/sources", nil, &list)
	if len(list.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(list.Sources))
	}

	// Content omitted by default, included on request
	var got store.Source
	doJSON(t, "GET", srv.URL+"/api/sources/"+created.ID, nil, &got)
	if got.Content != "" {
		t.Fatal("content should be omitted by default")
	}
	doJSON(t, "GET", srv.URL+"/api/sources/"+created.ID+"?content=true", nil, &got)
	if !strings.Contains(got.Content, "vinyl tiles") {
		t.Fatalf("content = %q", got.Content)
	}

	if code := doJSON(t, "DELETE", srv.URL+"/api/sources/"+created.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}
	if code := doJSON(t, "GET", srv.URL+"/api/sources/"+created.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestCreateSourceValidation(t *testing.T) {
	srv, _ := testServer(t)

	code := doJSON(t, "POST", srv.URL+"/api/sources", CreateSourceRequest{Title: "x"}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", code)
	}
	code = doJSON(t, "POST", srv.URL+"/api/sources", CreateSourceRequest{Content: "x"}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", code)
	}
}

func TestExtractFlow(t *testing.T) {
	srv, st := testServer(t)

	var src store.Source
	doJSON(t, "POST", srv.URL+"/api/sources", CreateSourceRequest{
		Title:      "Northside Primary",
		SchoolCode: "4021",
		Content:    "register rows",
	}, &src)

	var accepted ExtractResponse
	code := doJSON(t, "POST", srv.URL+"/api/sources/"+src.ID+"/extract", nil, &accepted)
	if code != http.StatusAccepted {
		t.Fatalf("extract status %d", code)
	}
	job := waitForJob(t, st, accepted.JobID)
	if job.Status != store.JobCompleted {
		t.Fatalf("job status %s (error %q)", job.Status, job.Error)
	}

	var records ListRecordsResponse
	doJSON(t, "GET", srv.URL+"/api/records?source_id="+src.ID, nil, &records)
	if records.Count != 1 || records.Records[0].BuildingID != "A1" {
		t.Fatalf("records = %+v", records)
	}

	var rec acm.Record
	doJSON(t, "GET", srv.URL+"/api/records/"+records.Records[0].ID, nil, &rec)
	if rec.Product != "Vinyl Tiles" {
		t.Fatalf("record = %+v", rec)
	}

	var stats store.RecordStats
	doJSON(t, "GET", srv.URL+"/api/stats", nil, &stats)
	if stats.TotalRecords != 1 || stats.Buildings != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	var run acm.RunSummary
	code = doJSON(t, "GET", srv.URL+"/api/sources/"+src.ID+"/runs/latest", nil, &run)
	if code != http.StatusOK || run.RecordsCreated != 1 {
		t.Fatalf("latest run (%d) = %+v", code, run)
	}

	// Re-extraction without force conflicts
	code = doJSON(t, "POST", srv.URL+"/api/sources/"+src.ID+"/extract", nil, nil)
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	code = doJSON(t, "POST", srv.URL+"/api/sources/"+src.ID+"/extract?force=true", nil, &accepted)
	if code != http.StatusAccepted {
		t.Fatalf("forced extract status %d", code)
	}
	waitForJob(t, st, accepted.JobID)

	var jobList ListJobsResponse
	doJSON(t, "GET", srv.URL+"/api/jobs?source_id="+src.ID, nil, &jobList)
	if len(jobList.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobList.Jobs))
	}
}

func TestExtractUnknownSource(t *testing.T) {
	srv, _ := testServer(t)
	code := doJSON(t, "POST", srv.URL+"/api/sources/nope/extract", nil, nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestExportCSVDownload(t *testing.T) {
	srv, st := testServer(t)

	var src store.Source
	doJSON(t, "POST", srv.URL+"/api/sources", CreateSourceRequest{
		Title:   "Northside Primary",
		Content: "register rows",
	}, &src)

	var accepted ExtractResponse
	doJSON(t, "POST", srv.URL+"/api/sources/"+src.ID+"/extract", nil, &accepted)
	waitForJob(t, st, accepted.JobID)

	resp, err := http.Get(srv.URL + "/api/sources/" + src.ID + "/export/csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "acm_export_Northside_Primary.csv") {
		t.Fatalf("content disposition %q", cd)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	text := body.String()
	if !strings.HasPrefix(text, "Building ID,") || !strings.Contains(text, "Vinyl Tiles") {
		t.Fatalf("csv body:\n%s", text)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	srv, _ := testServer(t)
	code := doJSON(t, "POST", srv.URL+"/api/jobs/nope/cancel", nil, nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestRecordFilterValidation(t *testing.T) {
	srv, _ := testServer(t)
	code := doJSON(t, "GET", fmt.Sprintf("%s/api/records?limit=abc", srv.URL), nil, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
