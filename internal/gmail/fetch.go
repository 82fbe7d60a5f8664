package gmail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	gmailapi "google.golang.org/api/gmail/v1"
)

// ProgressFunc is invoked after each listing page with the number of message
// IDs collected so far and the target count.
type ProgressFunc func(collected, target int)

// Lister pages the provider's message-ID index.
type Lister interface {
	ListMessageIDs(ctx context.Context, opts ListOptions) ([]string, string, error)
}

// Detailer retrieves metadata for a set of message IDs, best-effort.
type Detailer interface {
	FetchDetails(ctx context.Context, ids []string) ([]*gmailapi.Message, error)
}

// TotalFetcher collects message IDs across pages until a target count is
// reached, then fetches their metadata in one batched pass.
type TotalFetcher struct {
	lister   Lister
	detailer Detailer
}

func NewTotalFetcher(l Lister, d Detailer) *TotalFetcher {
	return &TotalFetcher{lister: l, detailer: d}
}

// FetchTotal returns up to target messages plus the number of IDs actually
// collected. The returned slice can be shorter than the collected count
// because the detail fetch is best-effort. A listing failure after the first
// page stops pagination but keeps what was already collected; only a failure
// with nothing collected is returned as an error.
func (f *TotalFetcher) FetchTotal(ctx context.Context, target int, onProgress ProgressFunc, opts ListOptions) ([]*gmailapi.Message, int, error) {
	var ids []string
	pageToken := ""

	for len(ids) < target {
		pageOpts := opts
		pageOpts.PageToken = pageToken
		pageOpts.PageSize = min(target-len(ids), maxPageSize)

		pageIDs, next, err := f.lister.ListMessageIDs(ctx, pageOpts)
		if err != nil {
			if len(ids) == 0 {
				return nil, 0, fmt.Errorf("failed to list message ids: %w", err)
			}
			log.Error().Err(err).Int("collected", len(ids)).
				Msg("page listing failed, continuing with partial collection")
			break
		}
		if len(pageIDs) == 0 {
			log.Info().Int("collected", len(ids)).Msg("mailbox exhausted")
			break
		}

		ids = append(ids, pageIDs...)
		if onProgress != nil {
			onProgress(len(ids), target)
		}

		if next == "" {
			log.Info().Int("collected", len(ids)).Msg("reached end of mailbox")
			break
		}
		pageToken = next
	}

	if len(ids) == 0 {
		return nil, 0, nil
	}

	log.Info().Int("collected", len(ids)).Msg("collected message ids, fetching details")
	msgs, err := f.detailer.FetchDetails(ctx, ids)
	if err != nil {
		return msgs, len(ids), err
	}
	return msgs, len(ids), nil
}
