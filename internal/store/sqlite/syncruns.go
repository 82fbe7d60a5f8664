package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailstash/mailstash/internal/store"
)

// RecordSyncRun appends one row of sync statistics for an account.
func (s *DB) RecordSyncRun(ctx context.Context, run *store.SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (account_id, started_at, finished_at, fetched, created, updated, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.AccountID, run.StartedAt, run.FinishedAt,
		run.Fetched, run.Created, run.Updated, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run for %s: %w", run.AccountID, err)
	}
	return nil
}

// LastSyncRun returns the most recent sync run for an account, or nil if the
// account has never synced.
func (s *DB) LastSyncRun(ctx context.Context, accountID string) (*store.SyncRun, error) {
	var run store.SyncRun
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, started_at, finished_at, fetched, created, updated, errors
		FROM sync_runs WHERE account_id = ?
		ORDER BY finished_at DESC LIMIT 1`, accountID,
	).Scan(&run.ID, &run.AccountID, &run.StartedAt, &run.FinishedAt,
		&run.Fetched, &run.Created, &run.Updated, &run.Errors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run for %s: %w", accountID, err)
	}
	return &run, nil
}
