package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"receipts/internal/core"
)

// XLSX renders the collection as a single-sheet workbook with the same
// columns as the CSV export.
func XLSX(receipts []core.Receipt) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Receipts"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, r := range receipts {
		values := []any{
			r.ID,
			r.Title,
			r.StoreName,
			r.Amount,
			core.DateKey(r.Date),
			string(r.Category),
			r.Description,
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
