// Package export renders the receipt collection to its file formats (JSON,
// CSV, XLSX, backup envelope) and parses import payloads back into records.
// Import deduplication against the live collection happens in the
// repository; this package only validates shape and required fields.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"receipts/internal/core"
)

// csvHeader is the fixed export header; columns are ID, title, store,
// amount, date, category, description, created, updated.
var csvHeader = []string{"ID", "제목", "상점명", "금액", "날짜", "카테고리", "설명", "생성일", "수정일"}

// utf8BOM makes spreadsheet applications detect the encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MaxImportSize caps accepted import payloads at 10 MiB.
const MaxImportSize = 10 << 20

// JSON renders the collection as an indented JSON array, the same layout
// the repository persists.
func JSON(receipts []core.Receipt) ([]byte, error) {
	if receipts == nil {
		receipts = []core.Receipt{}
	}
	return json.MarshalIndent(receipts, "", "  ")
}

// ParseJSON parses an import payload. The payload must be a JSON array of
// receipt objects carrying at least id, title, storeName, amount, date and
// category; anything else is reported as a descriptive error rather than
// silently dropped. Missing timestamps default to now.
func ParseJSON(data []byte, now time.Time) ([]core.Receipt, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("import payload too large (%d bytes, max %d)", len(data), MaxImportSize)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("import payload must be a JSON array of receipts: %w", err)
	}

	out := make([]core.Receipt, 0, len(raw))
	for i, item := range raw {
		rec, err := parseRecord(item, now)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

type wireReceipt struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Category    core.Category   `json:"category"`
	StoreName   string          `json:"storeName"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Tags        []string        `json:"tags"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

func parseRecord(item json.RawMessage, now time.Time) (core.Receipt, error) {
	var w wireReceipt
	if err := json.Unmarshal(item, &w); err != nil {
		return core.Receipt{}, fmt.Errorf("not a receipt object: %w", err)
	}

	switch {
	case w.ID == "":
		return core.Receipt{}, fmt.Errorf("missing required field %q", "id")
	case w.Title == "":
		return core.Receipt{}, fmt.Errorf("missing required field %q", "title")
	case w.StoreName == "":
		return core.Receipt{}, fmt.Errorf("missing required field %q", "storeName")
	case len(w.Amount) == 0:
		return core.Receipt{}, fmt.Errorf("missing required field %q", "amount")
	case w.Date == "":
		return core.Receipt{}, fmt.Errorf("missing required field %q", "date")
	case w.Category == "":
		return core.Receipt{}, fmt.Errorf("missing required field %q", "category")
	}

	amount, err := coerceAmount(w.Amount)
	if err != nil {
		return core.Receipt{}, err
	}

	date, err := core.ParseDate(w.Date)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("invalid date %q", w.Date)
	}

	rec := core.Receipt{
		ID:          w.ID,
		Title:       w.Title,
		Amount:      amount,
		Date:        date,
		Category:    w.Category,
		StoreName:   w.StoreName,
		Description: w.Description,
		ImageURL:    w.ImageURL,
		Tags:        w.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t, err := core.ParseDate(w.CreatedAt); err == nil {
		rec.CreatedAt = t
	}
	if t, err := core.ParseDate(w.UpdatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

// coerceAmount accepts both a JSON number and a numeric string, since
// exports from older builds quoted the amount column.
func coerceAmount(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %s", raw)
	}
	return int64(f), nil
}

// CSV renders the collection as UTF-8 CSV with a BOM prefix. Dates are bare
// calendar dates, timestamps full RFC 3339.
func CSV(receipts []core.Receipt) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)
	for _, r := range receipts {
		_ = w.Write([]string{
			r.ID,
			r.Title,
			r.StoreName,
			strconv.FormatInt(r.Amount, 10),
			core.DateKey(r.Date),
			string(r.Category),
			r.Description,
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	return buf.Bytes()
}
