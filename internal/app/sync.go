package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailstash/mailstash/internal/gmail"
	"github.com/mailstash/mailstash/internal/store"
)

// Fetcher is the slice of the Gmail client the sync service needs.
type Fetcher interface {
	FetchTotal(ctx context.Context, target int, onProgress gmail.ProgressFunc, opts gmail.ListOptions) ([]*gmailapi.Message, int, error)
}

// RunStats reports what one sync invocation achieved. Errors counts messages
// that were collected but could not be fetched or persisted; a partially
// failed run still reports accurate counts rather than pretending success.
type RunStats struct {
	Fetched int
	Created int
	Updated int
	Errors  int
}

// SyncService pulls mailbox metadata for one account and reconciles it into
// the local store.
type SyncService struct {
	store     store.Store
	fetcher   Fetcher
	accountID string
}

// NewSyncService creates a SyncService syncing the given account.
func NewSyncService(s store.Store, f Fetcher, accountID string) *SyncService {
	return &SyncService{store: s, fetcher: f, accountID: accountID}
}

// Sync fetches up to count messages (optionally filtered by label IDs and a
// Gmail query), parses them, and upserts them keyed by Gmail ID. Fatal
// conditions (auth, config, first-page listing) abort with an error; per-
// message failures degrade completeness and are reflected in the stats.
func (s *SyncService) Sync(ctx context.Context, count int, labelIDs []string, query string) (*RunStats, error) {
	started := time.Now()

	msgs, collected, err := s.fetcher.FetchTotal(ctx, count,
		func(collected, target int) {
			log.Info().Str("account", s.accountID).
				Int("collected", collected).Int("target", target).
				Msg("collecting message ids")
		},
		gmail.ListOptions{LabelIDs: labelIDs, Query: query},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	records := gmail.ParseMessages(msgs)

	stats := &RunStats{
		Fetched: len(records),
		Errors:  collected - len(records),
	}

	for i := range records {
		created, err := s.store.UpsertEmail(ctx, s.accountID, &records[i])
		if err != nil {
			log.Error().Str("account", s.accountID).Str("gmail_id", records[i].GmailID).
				Err(err).Msg("failed to upsert email")
			stats.Errors++
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	if err := s.store.RecordSyncRun(ctx, &store.SyncRun{
		AccountID:  s.accountID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Fetched:    stats.Fetched,
		Created:    stats.Created,
		Updated:    stats.Updated,
		Errors:     stats.Errors,
	}); err != nil {
		log.Error().Str("account", s.accountID).Err(err).Msg("failed to record sync run")
	}

	log.Info().Str("account", s.accountID).
		Int("fetched", stats.Fetched).Int("created", stats.Created).
		Int("updated", stats.Updated).Int("errors", stats.Errors).
		Dur("took", time.Since(started)).
		Msg("sync complete")
	return stats, nil
}

// Wipe deletes every stored email for the account and returns the count, for
// re-sync-from-scratch workflows.
func (s *SyncService) Wipe(ctx context.Context) (int64, error) {
	count, err := s.store.WipeEmails(ctx, s.accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to wipe emails: %w", err)
	}
	log.Info().Str("account", s.accountID).Int64("deleted", count).Msg("wiped stored emails")
	return count, nil
}
