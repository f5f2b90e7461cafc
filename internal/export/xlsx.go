package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/samp/internal/acm"
)

// WriteXLSX renders records as an XLSX workbook and returns the file bytes.
func WriteXLSX(records []*acm.Record) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "ACM Register"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		for col, v := range recordRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if col == len(headers)-1 && r.PageNumber > 0 {
				_ = f.SetCellValue(sheet, cell, r.PageNumber)
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 18) // building
	_ = f.SetColWidth(sheet, "C", "D", 18) // room
	_ = f.SetColWidth(sheet, "E", "E", 24) // product
	_ = f.SetColWidth(sheet, "F", "F", 48) // description
	_ = f.SetColWidth(sheet, "G", "K", 16)
	_ = f.SetColWidth(sheet, "L", "M", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
