// Package export renders stored ACM register records as downloadable
// CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackzampolin/samp/internal/acm"
)

// headers is the column order for both CSV and XLSX exports.
var headers = []string{
	"Building ID",
	"Building Name",
	"Room ID",
	"Room Name",
	"Product",
	"Material Description",
	"Extent",
	"Location",
	"Friable",
	"Material Condition",
	"Risk Status",
	"Result",
	"Page Number",
}

// CSVFilename returns the download filename for a source title,
// e.g. "acm_export_Northside_Primary.csv".
func CSVFilename(title string) string {
	return fmt.Sprintf("acm_export_%s.csv", strings.ReplaceAll(title, " ", "_"))
}

// XLSXFilename returns the download filename for a source title.
func XLSXFilename(title string) string {
	return fmt.Sprintf("acm_export_%s.xlsx", strings.ReplaceAll(title, " ", "_"))
}

// WriteCSV writes records as CSV to w, header row first.
func WriteCSV(w io.Writer, records []*acm.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordRow(r *acm.Record) []string {
	page := ""
	if r.PageNumber > 0 {
		page = strconv.Itoa(r.PageNumber)
	}
	return []string{
		r.BuildingID,
		r.BuildingName,
		r.RoomID,
		r.RoomName,
		r.Product,
		r.MaterialDescription,
		r.Extent,
		r.Location,
		r.Friable,
		r.MaterialCondition,
		r.RiskStatus,
		r.Result,
		page,
	}
}
