// Package services orchestrates receipt operations across the repository,
// the optional change-event feed and the text extractor.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"receipts/internal/cache"
	"receipts/internal/core"
	"receipts/internal/events"
	"receipts/internal/export"
	"receipts/internal/extract"
	"receipts/internal/repository"
	"receipts/internal/stats"
)

// EventPublisher is the outbound port for change notifications.
type EventPublisher interface {
	Publish(ctx context.Context, action, id string) error
	Close() error
}

type ReceiptService struct {
	repo      *repository.Repository
	publisher EventPublisher
	extractor extract.Extractor

	// revision counts mutations; it keys the statistics cache so a stale
	// snapshot can never be served after a write.
	revision   atomic.Int64
	statsCache *cache.LRU[stats.Statistics]

	now func() time.Time
}

// NewReceiptService wires the service. publisher and extractor may be nil;
// a nil publisher disables the change feed, a nil extractor falls back to
// the mock.
func NewReceiptService(repo *repository.Repository, publisher EventPublisher, extractor extract.Extractor) *ReceiptService {
	if extractor == nil {
		extractor = extract.Mock{}
	}
	return &ReceiptService{
		repo:       repo,
		publisher:  publisher,
		extractor:  extractor,
		statsCache: cache.New[stats.Statistics](4, 5*time.Minute),
		now:        time.Now,
	}
}

// Create validates and stores a new receipt.
func (s *ReceiptService) Create(ctx context.Context, in core.ReceiptInput) (core.Receipt, error) {
	if err := in.Validate(s.now()); err != nil {
		return core.Receipt{}, err
	}
	rec := s.repo.Add(ctx, in)
	s.revision.Add(1)
	s.publish(ctx, events.ActionCreated, rec.ID)
	return rec, nil
}

// Update validates and applies a partial update. ok is false when no
// receipt has the given id.
func (s *ReceiptService) Update(ctx context.Context, id string, patch core.ReceiptPatch) (core.Receipt, bool, error) {
	if err := patch.Validate(s.now()); err != nil {
		return core.Receipt{}, false, err
	}
	rec, ok := s.repo.Update(ctx, id, patch)
	if !ok {
		return core.Receipt{}, false, nil
	}
	s.revision.Add(1)
	s.publish(ctx, events.ActionUpdated, rec.ID)
	return rec, true, nil
}

// Delete removes a receipt; unknown ids report false.
func (s *ReceiptService) Delete(ctx context.Context, id string) bool {
	if !s.repo.Remove(ctx, id) {
		return false
	}
	s.revision.Add(1)
	s.publish(ctx, events.ActionDeleted, id)
	return true
}

// Import parses a JSON export and merges it into the collection,
// deduplicating by id.
func (s *ReceiptService) Import(ctx context.Context, payload []byte) (repository.ImportResult, error) {
	records, err := export.ParseJSON(payload, s.now())
	if err != nil {
		return repository.ImportResult{}, fmt.Errorf("parse import: %w", err)
	}
	res := s.repo.ImportMany(ctx, records)
	if res.Imported > 0 {
		s.revision.Add(1)
		// A single resync marker; consumers re-fetch the whole collection.
		s.publish(ctx, events.ActionImported, "")
	}
	return res, nil
}

// Get returns a single receipt by id.
func (s *ReceiptService) Get(id string) (core.Receipt, bool) {
	return s.repo.Get(id)
}

// List returns receipts filtered by the optional category and search query.
func (s *ReceiptService) List(category core.Category, query string) []core.Receipt {
	var out []core.Receipt
	if category != "" {
		out = s.repo.ByCategory(category)
	} else {
		out = s.repo.List()
	}
	if query == "" {
		return out
	}
	if category == "" {
		return s.repo.Search(query)
	}
	// Both filters: narrow the category slice by the query.
	filtered := out[:0:0]
	matched := map[string]struct{}{}
	for _, r := range s.repo.Search(query) {
		matched[r.ID] = struct{}{}
	}
	for _, r := range out {
		if _, ok := matched[r.ID]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Statistics returns the analytics snapshot for the current collection,
// memoized per revision.
func (s *ReceiptService) Statistics() stats.Statistics {
	key := strconv.FormatInt(s.revision.Load(), 10)
	if snap, ok := s.statsCache.Get(key); ok {
		return snap
	}
	snap := stats.Compute(s.repo.List(), s.now())
	s.statsCache.Set(key, snap)
	return snap
}

// ParseImage runs the extractor on an image and parses its text. A
// low-confidence extraction is an error rather than bad prefill data.
func (s *ReceiptService) ParseImage(ctx context.Context, image string) (extract.Parsed, error) {
	res, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return extract.Parsed{}, fmt.Errorf("extract text: %w", err)
	}
	if !extract.ValidResult(res) {
		return extract.Parsed{}, fmt.Errorf("extraction confidence too low (%.2f)", res.Confidence)
	}
	return extract.Parse(res.Text), nil
}

// ParseText parses already-extracted receipt text.
func (s *ReceiptService) ParseText(text string) extract.Parsed {
	return extract.Parse(text)
}

func (s *ReceiptService) Close() error {
	if s.publisher != nil {
		return s.publisher.Close()
	}
	return nil
}

// publish sends a change event on a best-effort basis. The mutation has
// already been applied; a broker failure is logged, never surfaced.
func (s *ReceiptService) publish(ctx context.Context, action, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish receipt event",
			"action", action, "id", id, "error", err)
	}
}
