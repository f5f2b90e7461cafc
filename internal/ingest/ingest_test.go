package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/samp/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestIngestCreatesSource(t *testing.T) {
	st := testStore(t)
	path := writeDoc(t, t.TempDir(), "4021_northside_primary.txt", "register content")

	res, err := Ingest(context.Background(), st, Request{Path: path})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Updated {
		t.Error("first ingest should not be an update")
	}

	src, err := st.GetSource(context.Background(), res.SourceID)
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if src.Title != "northside primary" {
		t.Errorf("title = %q", src.Title)
	}
	if src.SchoolCode != "4021" {
		t.Errorf("school code = %q", src.SchoolCode)
	}
	if src.Content != "register content" {
		t.Errorf("content = %q", src.Content)
	}
}

func TestIngestSamePathUpdates(t *testing.T) {
	st := testStore(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "school.txt", "first version")

	first, err := Ingest(context.Background(), st, Request{Path: path})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	writeDoc(t, dir, "school.txt", "second version")
	second, err := Ingest(context.Background(), st, Request{Path: path})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if !second.Updated || second.SourceID != first.SourceID {
		t.Fatalf("re-ingest should update in place: %+v vs %+v", first, second)
	}

	src, _ := st.GetSource(context.Background(), first.SourceID)
	if src.Content != "second version" {
		t.Errorf("content = %q", src.Content)
	}

	sources, _ := st.ListSources(context.Background())
	if len(sources) != 1 {
		t.Errorf("sources = %d, want 1", len(sources))
	}
}

func TestIngestExplicitTitleWins(t *testing.T) {
	st := testStore(t)
	path := writeDoc(t, t.TempDir(), "raw_dump.txt", "content")

	res, err := Ingest(context.Background(), st, Request{Path: path, Title: "Northside Primary", SchoolCode: "4021"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	src, _ := st.GetSource(context.Background(), res.SourceID)
	if src.Title != "Northside Primary" || src.SchoolCode != "4021" {
		t.Errorf("source = %+v", src)
	}
}

func TestIngestRejectsUnsupportedAndEmpty(t *testing.T) {
	st := testStore(t)
	dir := t.TempDir()

	pdf := writeDoc(t, dir, "report.pdf", "binary")
	if _, err := Ingest(context.Background(), st, Request{Path: pdf}); err == nil {
		t.Error("pdf should be rejected")
	}

	empty := writeDoc(t, dir, "empty.txt", "")
	if _, err := Ingest(context.Background(), st, Request{Path: empty}); err == nil {
		t.Error("empty file should be rejected")
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		path  string
		title string
		code  string
	}{
		{"4021_northside_primary.txt", "northside primary", "4021"},
		{"/inbox/8800-hilltop-high.md", "hilltop high", "8800"},
		{"westgate_college.txt", "westgate college", ""},
		{"plain.txt", "plain", ""},
	}
	for _, c := range cases {
		title, code := TitleFromFilename(c.path)
		if title != c.title || code != c.code {
			t.Errorf("TitleFromFilename(%q) = %q/%q, want %q/%q", c.path, title, code, c.title, c.code)
		}
	}
}
