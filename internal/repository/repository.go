// Package repository owns the canonical receipt collection. It keeps the
// full list in memory and mirrors it wholesale into an injected kv.Store on
// every mutation, under a single storage key.
package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"receipts/internal/core"
	"receipts/internal/kv"
)

// StorageKey is the kv entry holding the serialized collection.
const StorageKey = "receipts"

type Repository struct {
	store kv.Store

	mu       sync.Mutex
	receipts []core.Receipt

	now   func() time.Time
	newID func() string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type Option func(*Repository)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDFunc overrides the ID generator.
func WithIDFunc(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		receipts: []core.Receipt{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the persisted collection. It fails soft: an absent, malformed
// or unreadable payload leaves the repository empty and is only logged, so
// startup never breaks on bad stored state.
func (r *Repository) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.receipts = []core.Receipt{}

	data, ok, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read stored receipts, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var loaded []core.Receipt
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.WarnContext(ctx, "Stored receipts are corrupt, starting empty", "error", err)
		return
	}
	if loaded != nil {
		r.receipts = loaded
	}

	slog.InfoContext(ctx, "Loaded receipts", "count", len(r.receipts))
}

// Add creates a receipt from the payload, assigning a fresh ID and setting
// CreatedAt = UpdatedAt. Validation is the caller's responsibility.
func (r *Repository) Add(ctx context.Context, in core.ReceiptInput) core.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec := core.Receipt{
		ID:          r.newID(),
		Title:       in.Title,
		Amount:      in.Amount,
		Date:        in.Date,
		Category:    in.Category,
		StoreName:   in.StoreName,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Tags:        append([]string(nil), in.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.receipts = append(r.receipts, rec)
	r.persist(ctx)
	return rec
}

// Update merges the set fields of patch into the receipt with the given id.
// ID and CreatedAt are preserved, UpdatedAt is bumped. Unknown ids are a
// no-op and report ok=false.
func (r *Repository) Update(ctx context.Context, id string, patch core.ReceiptPatch) (core.Receipt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.receipts {
		if r.receipts[i].ID != id {
			continue
		}
		rec := &r.receipts[i]
		if patch.Title != nil {
			rec.Title = *patch.Title
		}
		if patch.Amount != nil {
			rec.Amount = *patch.Amount
		}
		if patch.Date != nil {
			rec.Date = *patch.Date
		}
		if patch.Category != nil {
			rec.Category = *patch.Category
		}
		if patch.StoreName != nil {
			rec.StoreName = *patch.StoreName
		}
		if patch.Description != nil {
			rec.Description = *patch.Description
		}
		if patch.ImageURL != nil {
			rec.ImageURL = *patch.ImageURL
		}
		if patch.Tags != nil {
			rec.Tags = append([]string(nil), patch.Tags...)
		}
		rec.UpdatedAt = r.now()
		r.persist(ctx)
		return *rec, true
	}
	return core.Receipt{}, false
}

// Remove deletes the receipt with the given id. Unknown ids are a no-op.
func (r *Repository) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.receipts {
		if r.receipts[i].ID == id {
			r.receipts = append(r.receipts[:i], r.receipts[i+1:]...)
			r.persist(ctx)
			return true
		}
	}
	return false
}

// ImportMany appends full records whose ids are not yet present. Records
// with known ids, and duplicates within the batch itself, are skipped.
func (r *Repository) ImportMany(ctx context.Context, records []core.Receipt) ImportResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.receipts))
	for _, rec := range r.receipts {
		seen[rec.ID] = struct{}{}
	}

	var res ImportResult
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			res.Skipped++
			continue
		}
		seen[rec.ID] = struct{}{}
		r.receipts = append(r.receipts, rec)
		res.Imported++
	}
	if res.Imported > 0 {
		r.persist(ctx)
	}

	slog.InfoContext(ctx, "Imported receipts", "imported", res.Imported, "skipped", res.Skipped)
	return res
}

// List returns a snapshot of the collection in insertion order.
func (r *Repository) List() []core.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Receipt(nil), r.receipts...)
}

// Get returns the receipt with the given id.
func (r *Repository) Get(id string) (core.Receipt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.receipts {
		if rec.ID == id {
			return rec, true
		}
	}
	return core.Receipt{}, false
}

// ByCategory returns the receipts with the given category, in insertion order.
func (r *Repository) ByCategory(c core.Category) []core.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []core.Receipt{}
	for _, rec := range r.receipts {
		if rec.Category == c {
			out = append(out, rec)
		}
	}
	return out
}

// Search matches the query case-insensitively against title, store name and
// description.
func (r *Repository) Search(query string) []core.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]core.Receipt(nil), r.receipts...)
	}

	out := []core.Receipt{}
	for _, rec := range r.receipts {
		if strings.Contains(strings.ToLower(rec.Title), q) ||
			strings.Contains(strings.ToLower(rec.StoreName), q) ||
			strings.Contains(strings.ToLower(rec.Description), q) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the current collection size.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.receipts)
}

// persist mirrors the whole collection into the store. A write failure is
// logged and the in-memory state kept; the next successful write converges
// the two again.
func (r *Repository) persist(ctx context.Context) {
	data, err := json.Marshal(r.receipts)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to serialize receipts", "error", err)
		return
	}
	if err := r.store.Set(ctx, StorageKey, data); err != nil {
		slog.ErrorContext(ctx, "Failed to persist receipts", "error", err, "count", len(r.receipts))
	}
}
