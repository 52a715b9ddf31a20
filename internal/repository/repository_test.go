package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"receipts/internal/core"
	"receipts/internal/kv/memory"
)

func testClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func input(title string, amount int64) core.ReceiptInput {
	return core.ReceiptInput{
		Title:     title,
		Amount:    amount,
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Category:  core.CategoryFood,
		StoreName: "상점",
	}
}

func TestAddAssignsIdentityAndTimestamps(t *testing.T) {
	repo := New(memory.New(), WithClock(testClock(time.Unix(0, 0))), WithIDFunc(seqIDs()))
	ctx := context.Background()

	ids := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		rec := repo.Add(ctx, input("r", 100))
		if rec.ID == "" {
			t.Fatal("empty id")
		}
		if _, dup := ids[rec.ID]; dup {
			t.Fatalf("duplicate id %q", rec.ID)
		}
		ids[rec.ID] = struct{}{}
		if !rec.CreatedAt.Equal(rec.UpdatedAt) {
			t.Fatalf("createdAt %v != updatedAt %v at creation", rec.CreatedAt, rec.UpdatedAt)
		}
	}
	if repo.Len() != 10 {
		t.Fatalf("len = %d, want 10", repo.Len())
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()
	repo.Add(ctx, input("a", 100))
	before := repo.List()

	title := "changed"
	if _, ok := repo.Update(ctx, "missing", core.ReceiptPatch{Title: &title}); ok {
		t.Fatal("update of unknown id reported ok")
	}
	after := repo.List()
	if len(after) != len(before) || after[0].Title != before[0].Title {
		t.Fatal("collection changed by no-op update")
	}
}

func TestUpdateMergesAndPreservesIdentity(t *testing.T) {
	repo := New(memory.New(), WithClock(testClock(time.Unix(0, 0))))
	ctx := context.Background()
	created := repo.Add(ctx, core.ReceiptInput{
		Title:       "저녁",
		Amount:      30000,
		Date:        time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Category:    core.CategoryFood,
		StoreName:   "식당",
		Description: "회식",
		Tags:        []string{"team"},
	})

	amount := int64(35000)
	updated, ok := repo.Update(ctx, created.ID, core.ReceiptPatch{Amount: &amount})
	if !ok {
		t.Fatal("update reported not found")
	}
	if updated.ID != created.ID {
		t.Fatalf("id changed: %q -> %q", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updatedAt did not increase: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.Amount != 35000 {
		t.Fatalf("amount = %d, want 35000", updated.Amount)
	}
	// Fields absent from the patch keep their prior values.
	if updated.Title != "저녁" || updated.StoreName != "식당" || updated.Description != "회식" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "team" {
		t.Fatalf("tags changed: %v", updated.Tags)
	}
}

func TestRemove(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()
	a := repo.Add(ctx, input("a", 100))
	b := repo.Add(ctx, input("b", 200))

	if !repo.Remove(ctx, a.ID) {
		t.Fatal("remove reported not found")
	}
	for _, rec := range repo.List() {
		if rec.ID == a.ID {
			t.Fatal("removed id still listed")
		}
	}
	if repo.Remove(ctx, a.ID) {
		t.Fatal("second remove should be a no-op")
	}
	if repo.Len() != 1 || repo.List()[0].ID != b.ID {
		t.Fatalf("unexpected collection after remove: %v", repo.List())
	}
}

func TestGet(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()

	rec := repo.Add(ctx, input("a", 100))
	got, ok := repo.Get(rec.ID)
	if !ok || got.Title != "a" {
		t.Fatalf("get = %+v, %v", got, ok)
	}
	if _, ok := repo.Get("missing"); ok {
		t.Fatal("unknown id reported found")
	}
}

func TestImportManyDeduplicates(t *testing.T) {
	repo := New(memory.New())
	ctx := context.Background()
	existing := repo.Add(ctx, input("kept", 100))

	batch := []core.Receipt{
		{ID: existing.ID, Title: "dup of existing", Amount: 1},
		{ID: "new-1", Title: "one", Amount: 2},
		{ID: "new-2", Title: "two", Amount: 3},
		{ID: "new-1", Title: "dup within batch", Amount: 4},
	}
	res := repo.ImportMany(ctx, batch)
	if res.Imported != 2 || res.Skipped != 2 {
		t.Fatalf("result = %+v, want {2 2}", res)
	}
	if res.Imported+res.Skipped != len(batch) {
		t.Fatalf("imported+skipped = %d, want %d", res.Imported+res.Skipped, len(batch))
	}

	seen := map[string]int{}
	for _, rec := range repo.List() {
		seen[rec.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("duplicate id %q after import", id)
		}
	}
	// The pre-existing record wins over an imported duplicate.
	if repo.List()[0].Title != "kept" {
		t.Fatalf("existing record overwritten: %+v", repo.List()[0])
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	repo := New(store)
	a := repo.Add(ctx, input("첫번째", 1000))
	repo.Add(ctx, input("지워질 것", 500))
	b := repo.Add(ctx, input("두번째", 3000))
	amount := int64(1500)
	repo.Update(ctx, a.ID, core.ReceiptPatch{Amount: &amount})
	repo.Remove(ctx, repo.List()[1].ID)

	reloaded := New(store)
	reloaded.Load(ctx)

	want := repo.List()
	got := reloaded.List()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.ID != w.ID || g.Title != w.Title || g.Amount != w.Amount || g.Category != w.Category {
			t.Fatalf("record %d mismatch: got %+v want %+v", i, g, w)
		}
		// Dates compare as calendar dates after the serialization round trip.
		if core.DateKey(g.Date) != core.DateKey(w.Date) {
			t.Fatalf("date mismatch: %v vs %v", g.Date, w.Date)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) || !g.UpdatedAt.Equal(w.UpdatedAt) {
			t.Fatalf("timestamps mismatch: %+v vs %+v", g, w)
		}
	}
	if got[1].ID != b.ID {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestLoadFailsSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		repo := New(memory.New())
		repo.Load(ctx)
		if repo.Len() != 0 {
			t.Fatalf("len = %d, want 0", repo.Len())
		}
	})

	t.Run("corrupt payload", func(t *testing.T) {
		store := memory.New()
		if err := store.Set(ctx, StorageKey, []byte(`{not json`)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		repo := New(store)
		repo.Load(ctx)
		if repo.Len() != 0 {
			t.Fatalf("len = %d, want 0", repo.Len())
		}
		// The repository stays usable after a corrupt load.
		repo.Add(ctx, input("after", 100))
		if repo.Len() != 1 {
			t.Fatalf("len = %d, want 1", repo.Len())
		}
	})

	t.Run("read error", func(t *testing.T) {
		repo := New(failingStore{})
		repo.Load(ctx)
		if repo.Len() != 0 {
			t.Fatalf("len = %d, want 0", repo.Len())
		}
	})
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	repo := New(failingStore{})
	ctx := context.Background()

	rec := repo.Add(ctx, input("best effort", 700))
	if repo.Len() != 1 {
		t.Fatalf("len = %d, want 1 despite persist failure", repo.Len())
	}
	if !repo.Remove(ctx, rec.ID) {
		t.Fatal("remove failed")
	}
	if repo.Len() != 0 {
		t.Fatalf("len = %d, want 0", repo.Len())
	}
}

// failingStore simulates a backend where every operation fails, e.g. a full
// disk or exceeded quota.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStore
}
func (failingStore) Set(context.Context, string, []byte) error { return errStore }
func (failingStore) Delete(context.Context, string) error      { return errStore }
func (failingStore) Close() error                              { return nil }
