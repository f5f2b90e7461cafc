package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/samp/internal/acm"
)

func sampleRecords() []*acm.Record {
	return []*acm.Record{
		{
			BuildingID:          "B1",
			BuildingName:        "Main Block",
			RoomID:              "B1-R001",
			RoomName:            "Science Lab",
			Product:             "Vinyl floor tiles",
			MaterialDescription: "Grey vinyl tiles, bitumen adhesive",
			Extent:              "45 m2",
			Location:            "Floor",
			Friable:             "Non Friable",
			MaterialCondition:   "Good",
			RiskStatus:          "Low",
			Result:              acm.ResultDetected,
			PageNumber:          12,
		},
		{
			BuildingID:          "B2",
			Product:             "Ceiling sheeting",
			MaterialDescription: "Fibre cement sheet",
			Result:              acm.ResultNotDetected,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Building ID" || rows[0][12] != "Page Number" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "B1" || rows[1][5] != "Grey vinyl tiles, bitumen adhesive" || rows[1][12] != "12" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	// No page number produces an empty cell, not "0".
	if rows[2][12] != "" {
		t.Fatalf("expected empty page cell, got %q", rows[2][12])
	}
}

func TestWriteXLSX(t *testing.T) {
	data, err := WriteXLSX(sampleRecords())
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("ACM Register")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Building ID" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][11] != "Detected" || rows[1][12] != "12" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}

func TestFilenames(t *testing.T) {
	if got := CSVFilename("Northside Primary School"); got != "acm_export_Northside_Primary_School.csv" {
		t.Fatalf("csv filename: %s", got)
	}
	if got := XLSXFilename("Northside Primary School"); !strings.HasSuffix(got, ".xlsx") {
		t.Fatalf("xlsx filename: %s", got)
	}
}
