package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nstoolkit/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := history.Entry{
		RunID:        "run-1",
		Operation:    "describe",
		Source:       "/games/title.nsp",
		DetectedType: "pfs0",
		Candidates:   []string{"pfs0", "nca", "xci"},
		Attempts:     1,
		Warnings:     2,
		StartedAt:    started,
		FinishedAt:   started.Add(1500 * time.Millisecond),
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration %s", got.Duration())
	}
}

func TestGetMissingRun(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Entry{Operation: "describe"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestRecentOrdersNewestFirstAndPrunes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		start := base.Add(time.Duration(i) * time.Hour).Add(time.Duration(i) * 100 * time.Millisecond)
		err := store.Record(ctx, history.Entry{
			RunID: id, Operation: "extract", Source: "/x.xci",
			Error: i == 1, ErrorMessage: "boom",
			StartedAt: start, FinishedAt: start,
		})
		if err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "c" || recent[1].RunID != "b" {
		t.Fatalf("unexpected recent order: %+v", recent)
	}
	if !recent[1].Error {
		t.Fatal("expected error flag to round-trip")
	}

	removed, err := store.Prune(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", removed)
	}
	remaining, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].RunID != "c" {
		t.Fatalf("unexpected remaining runs: %+v", remaining)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	now := time.Now()
	if err := store.Record(context.Background(), history.Entry{RunID: "keep", Operation: "describe", Source: "/x", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}
