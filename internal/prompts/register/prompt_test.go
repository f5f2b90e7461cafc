package register

import (
	"strings"
	"testing"

	"github.com/jackzampolin/samp/internal/providers"
)

func TestBuildUserPrompt(t *testing.T) {
	school := SchoolInfo{SchoolName: "Northside Primary", SchoolCode: "4021"}
	chunk := ChunkInfo{Index: 1, Total: 3, FirstPage: 12, LastPage: 18}

	prompt := BuildUserPrompt(school, chunk, "Building: A1 (Main Building)\nRoom: A1-R4 (Library)", "=== BUILDING: A1 ===\nsome register rows")

	for _, want := range []string{
		"chunk 2 of 3",
		"pages 12-18",
		"Northside Primary",
		"Code: 4021",
		"carried over from the previous chunk",
		"Room: A1-R4 (Library)",
		"some register rows",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildUserPromptNoContext(t *testing.T) {
	prompt := BuildUserPrompt(SchoolInfo{SchoolName: "Northside Primary"}, ChunkInfo{Index: 0, Total: 1}, "", "text")
	if strings.Contains(prompt, "<context>") {
		t.Errorf("expected no context block for first chunk, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "pages") {
		t.Errorf("expected no page range when pages unknown")
	}
}

func TestExtractionSchemaAcceptsModelOutput(t *testing.T) {
	raw := []byte(`{
		"records": [{
			"building_id": "A1",
			"room_id": "A1-R1",
			"room_name": "Classroom",
			"product": "Vinyl Floor Tiles",
			"material_description": "Grey mottled vinyl tiles",
			"result": "Detected",
			"extraction_confidence": "high",
			"page_number": 4
		}],
		"extraction_notes": null
	}`)

	rf := &providers.ResponseFormat{Name: "acm_register", JSONSchema: ExtractionSchema}
	var out Result
	if err := providers.DecodeStructured(rf, raw, &out); err != nil {
		t.Fatalf("DecodeStructured: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out.Records))
	}
	rec := out.Records[0]
	if rec.BuildingID != "A1" || rec.Product != "Vinyl Floor Tiles" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.PageNumber == nil || *rec.PageNumber != 4 {
		t.Errorf("page_number not decoded")
	}
}

func TestExtractionSchemaRejectsMissingRequired(t *testing.T) {
	raw := []byte(`{"records": [{"building_id": "A1", "product": "Pipe Insulation"}]}`)
	rf := &providers.ResponseFormat{Name: "acm_register", JSONSchema: ExtractionSchema}
	var out Result
	err := providers.DecodeStructured(rf, raw, &out)
	if err == nil {
		t.Fatal("expected schema violation")
	}
	if !providers.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestExtractionSchemaAllowsEmptyRecords(t *testing.T) {
	raw := []byte(`{"records": []}`)
	rf := &providers.ResponseFormat{Name: "acm_register", JSONSchema: ExtractionSchema}
	var out Result
	if err := providers.DecodeStructured(rf, raw, &out); err != nil {
		t.Fatalf("DecodeStructured: %v", err)
	}
	if out.Records == nil || len(out.Records) != 0 {
		t.Fatalf("expected empty records, got %v", out.Records)
	}
}
