package duckdb

import (
	"testing"
	"time"

	"github.com/tinytelemetry/sage/internal/model"
)

func TestRetentionCleaner_StopIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	cleaner := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 1})
	if cleaner == nil {
		t.Fatal("expected non-nil retention cleaner")
	}

	cleaner.Stop()
	cleaner.Stop()
}

func TestRetentionCleaner_DisabledWhenZeroDays(t *testing.T) {
	store := newTestStore(t)
	if cleaner := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 0}); cleaner != nil {
		t.Fatal("expected nil cleaner when retention is disabled")
	}
}

func TestDeleteBefore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	old := testRecord("checkout", "INFO", "old")
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	fresh := testRecord("checkout", "INFO", "fresh")

	if err := store.InsertLogBatch([]*model.LogRecord{old, fresh}); err != nil {
		t.Fatalf("InsertLogBatch: %v", err)
	}

	deleted, err := store.DeleteBefore(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	total, err := store.TotalLogCount(model.QueryOpts{})
	if err != nil {
		t.Fatalf("TotalLogCount: %v", err)
	}
	if total != 1 {
		t.Fatalf("remaining = %d, want 1", total)
	}
}
