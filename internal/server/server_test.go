package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRequiresDatabasePath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing database path")
	}
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{DatabasePath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Addr() != "127.0.0.1:8585" {
		t.Fatalf("addr = %s", s.Addr())
	}
	if s.IsRunning() {
		t.Fatal("server should not report running before Start")
	}
}

func TestRoutesBeforeStart(t *testing.T) {
	s, err := New(Config{DatabasePath: ":memory:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Health never requires initialization
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}

	// Store-backed routes 503 until Start opens the store
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sources", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("sources status %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil || errResp.Error == "" {
		t.Fatalf("error body %q", rec.Body.String())
	}
}
