package extract

import (
	"strings"
	"testing"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/prompts/register"
)

func dupItem(building, room, desc string, conf acm.Confidence, issues ...string) register.Item {
	it := register.Item{
		BuildingID:           building,
		Product:              "Vinyl Tiles",
		MaterialDescription:  desc,
		Result:               acm.ResultDetected,
		ExtractionConfidence: conf,
		DataIssues:           issues,
	}
	if room != "" {
		it.RoomID = &room
	}
	return it
}

func TestDedupKeyComponents(t *testing.T) {
	a := DedupKey(dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceHigh), "4021")
	if !strings.HasPrefix(a, "4021_A1_A1-R1_") {
		t.Fatalf("key = %q", a)
	}

	// Same material in a different room is a different key.
	b := DedupKey(dupItem("A1", "A1-R2", "Grey vinyl tiles", acm.ConfidenceHigh), "4021")
	if a == b {
		t.Errorf("different rooms must not collide")
	}

	// Missing identity parts fall back to placeholders.
	c := DedupKey(dupItem("", "", "Grey vinyl tiles", acm.ConfidenceHigh), "")
	if !strings.HasPrefix(c, "unknown_unknown_none_") {
		t.Errorf("key = %q", c)
	}

	// Only the first 50 chars of the description count, so OCR noise in the
	// tail does not defeat deduplication.
	long := strings.Repeat("x", 50)
	d1 := DedupKey(dupItem("A1", "A1-R1", long+"tail one", acm.ConfidenceHigh), "4021")
	d2 := DedupKey(dupItem("A1", "A1-R1", long+"other tail", acm.ConfidenceHigh), "4021")
	if d1 != d2 {
		t.Errorf("description tail should not affect the key")
	}
}

func TestDeduplicateMergesHigherConfidence(t *testing.T) {
	items := []register.Item{
		dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceLow, "issue from chunk 1"),
		dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceHigh, "issue from chunk 2"),
	}

	out, merged := Deduplicate(items, "4021")
	if len(out) != 1 || merged != 1 {
		t.Fatalf("out=%d merged=%d", len(out), merged)
	}
	if out[0].ExtractionConfidence != acm.ConfidenceHigh {
		t.Errorf("higher confidence should win, got %s", out[0].ExtractionConfidence)
	}
	if len(out[0].DataIssues) != 2 {
		t.Errorf("issues should union, got %v", out[0].DataIssues)
	}
}

func TestDeduplicateEqualConfidenceFewerIssuesWins(t *testing.T) {
	first := dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceMedium,
		"Result field was empty, set to Unknown", "Room ID inferred from context")
	first.Location = strPtr("Ceiling")
	second := dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceMedium)
	second.Location = strPtr("Floor")

	out, _ := Deduplicate([]register.Item{first, second}, "4021")
	if len(out) != 1 {
		t.Fatalf("out=%d", len(out))
	}
	if deref(out[0].Location) != "Floor" {
		t.Errorf("cleaner record should win the tie, got %q", deref(out[0].Location))
	}
	if len(out[0].DataIssues) != 2 {
		t.Errorf("issues should still union, got %v", out[0].DataIssues)
	}
}

func TestDeduplicateEqualConfidenceEqualIssuesFirstWins(t *testing.T) {
	first := dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceMedium)
	first.Location = strPtr("Ceiling")
	second := dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceMedium)
	second.Location = strPtr("Floor")

	out, _ := Deduplicate([]register.Item{first, second}, "4021")
	if len(out) != 1 {
		t.Fatalf("out=%d", len(out))
	}
	if deref(out[0].Location) != "Ceiling" {
		t.Errorf("first record should win the tie, got %q", deref(out[0].Location))
	}
}

func TestDedupKeyMultibytePrefix(t *testing.T) {
	// Prefix length counts characters, not bytes, so multibyte text near
	// the cutoff never splits a rune.
	long := strings.Repeat("é", 50)
	d1 := DedupKey(dupItem("A1", "A1-R1", long+"tail one", acm.ConfidenceHigh), "4021")
	d2 := DedupKey(dupItem("A1", "A1-R1", long+"other tail", acm.ConfidenceHigh), "4021")
	if d1 != d2 {
		t.Errorf("multibyte description tail should not affect the key")
	}
}

func TestDeduplicateKeepsDistinctRecordsInOrder(t *testing.T) {
	items := []register.Item{
		dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceHigh),
		dupItem("A1", "A1-R2", "Pipe insulation", acm.ConfidenceHigh),
		dupItem("B2", "B2-R1", "Cement sheeting", acm.ConfidenceHigh),
	}
	out, merged := Deduplicate(items, "4021")
	if len(out) != 3 || merged != 0 {
		t.Fatalf("out=%d merged=%d", len(out), merged)
	}
	if deref(out[0].RoomID) != "A1-R1" || deref(out[2].RoomID) != "B2-R1" {
		t.Errorf("order not preserved: %v", out)
	}
}

func TestDeduplicateDuplicateIssuesNotRepeated(t *testing.T) {
	items := []register.Item{
		dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceHigh, "shared issue"),
		dupItem("A1", "A1-R1", "Grey vinyl tiles", acm.ConfidenceHigh, "shared issue"),
	}
	out, _ := Deduplicate(items, "4021")
	if len(out[0].DataIssues) != 1 {
		t.Errorf("issues = %v, want deduplicated", out[0].DataIssues)
	}
}

func strPtr(s string) *string { return &s }
