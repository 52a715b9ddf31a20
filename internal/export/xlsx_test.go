package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSX(t *testing.T) {
	data, err := XLSX(sample())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][1] != "제목" || rows[0][3] != "금액" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "r-1" || rows[1][4] != "2024-01-15" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[2][5] != "교통비" {
		t.Fatalf("category cell = %q", rows[2][5])
	}
}
