package export

import (
	"encoding/json"
	"fmt"
	"time"

	"receipts/internal/core"
)

// BackupVersion identifies the envelope layout.
const BackupVersion = "1.0"

type (
	// Envelope wraps a full export with enough metadata to sanity-check a
	// restore without parsing every record.
	Envelope struct {
		Version   string         `json:"version"`
		Timestamp time.Time      `json:"timestamp"`
		Receipts  []core.Receipt `json:"receipts"`
		Metadata  Metadata       `json:"metadata"`
	}

	Metadata struct {
		Total      int             `json:"total"`
		Categories []core.Category `json:"categories"`
		DateRange  DateRange       `json:"dateRange"`
	}

	DateRange struct {
		Earliest time.Time `json:"earliest"`
		Latest   time.Time `json:"latest"`
	}
)

// Backup renders the collection inside a versioned envelope.
func Backup(receipts []core.Receipt, now time.Time) ([]byte, error) {
	if receipts == nil {
		receipts = []core.Receipt{}
	}

	env := Envelope{
		Version:   BackupVersion,
		Timestamp: now,
		Receipts:  receipts,
		Metadata: Metadata{
			Total:      len(receipts),
			Categories: presentCategories(receipts),
		},
	}
	if len(receipts) > 0 {
		earliest, latest := receipts[0].Date, receipts[0].Date
		for _, r := range receipts[1:] {
			if r.Date.Before(earliest) {
				earliest = r.Date
			}
			if r.Date.After(latest) {
				latest = r.Date
			}
		}
		env.Metadata.DateRange = DateRange{Earliest: earliest, Latest: latest}
	}

	return json.MarshalIndent(env, "", "  ")
}

// RestoreBackup extracts the receipts from an envelope produced by Backup.
func RestoreBackup(data []byte) ([]core.Receipt, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("not a valid backup file: %w", err)
	}
	if env.Receipts == nil {
		return nil, fmt.Errorf("not a valid backup file: missing receipts")
	}
	return env.Receipts, nil
}

// presentCategories returns the distinct categories in first-appearance order.
func presentCategories(receipts []core.Receipt) []core.Category {
	seen := map[core.Category]struct{}{}
	out := []core.Category{}
	for _, r := range receipts {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}
