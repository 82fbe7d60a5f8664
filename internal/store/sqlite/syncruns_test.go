package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mailstash/mailstash/internal/store"
)

func TestSyncRunHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	got, err := db.LastSyncRun(ctx, "a1")
	if err != nil {
		t.Fatalf("LastSyncRun (empty): %v", err)
	}
	if got != nil {
		t.Fatalf("LastSyncRun on never-synced account = %+v, want nil", got)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*store.SyncRun{
		{AccountID: "a1", StartedAt: base, FinishedAt: base.Add(time.Minute), Fetched: 10, Created: 10},
		{AccountID: "a1", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Minute),
			Fetched: 10, Created: 2, Updated: 8, Errors: 1},
	}
	for _, run := range runs {
		if err := db.RecordSyncRun(ctx, run); err != nil {
			t.Fatalf("RecordSyncRun: %v", err)
		}
	}

	got, err = db.LastSyncRun(ctx, "a1")
	if err != nil {
		t.Fatalf("LastSyncRun: %v", err)
	}
	if got == nil {
		t.Fatal("LastSyncRun = nil, want the most recent run")
	}
	if got.Created != 2 || got.Updated != 8 || got.Errors != 1 {
		t.Errorf("got %+v, want the second run's stats", got)
	}
	if !got.FinishedAt.Equal(base.Add(time.Hour + time.Minute)) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, base.Add(time.Hour+time.Minute))
	}
}
