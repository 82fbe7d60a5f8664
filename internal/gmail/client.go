package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const userID = "me"

// maxPageSize is the provider's ceiling on messages.list page size.
const maxPageSize = 500

// ListOptions configures one page of message-ID listing. LabelIDs and Query
// are independent filters passed through to the provider verbatim.
type ListOptions struct {
	PageToken string
	PageSize  int
	LabelIDs  []string
	Query     string
}

// Client talks to the Gmail API for a single authorized account.
type Client struct {
	svc   *gmailapi.Service
	batch *BatchFetcher
}

// NewClient creates a Gmail client from a token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{
		svc:   svc,
		batch: NewBatchFetcher(oauth2.NewClient(ctx, ts)),
	}, nil
}

// ListMessageIDs returns one page of message identifiers. PageSize is clamped
// to the provider limit of 500; an empty result with no next token means the
// mailbox (under the given filters) is exhausted.
func (c *Client) ListMessageIDs(ctx context.Context, opts ListOptions) ([]string, string, error) {
	size := opts.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}

	call := c.svc.Users.Messages.List(userID).MaxResults(int64(size))
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if len(opts.LabelIDs) > 0 {
		call = call.LabelIds(opts.LabelIDs...)
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list gmail messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

// FetchDetails retrieves metadata for the given message IDs in grouped
// requests. Best-effort: see BatchFetcher.
func (c *Client) FetchDetails(ctx context.Context, ids []string) ([]*gmailapi.Message, error) {
	return c.batch.FetchDetails(ctx, ids)
}

// FetchTotal pages through the mailbox until target message IDs are collected
// (or the mailbox is exhausted), then fetches their metadata in one batched
// pass. See TotalFetcher.
func (c *Client) FetchTotal(ctx context.Context, target int, onProgress ProgressFunc, opts ListOptions) ([]*gmailapi.Message, int, error) {
	return NewTotalFetcher(c, c.batch).FetchTotal(ctx, target, onProgress, opts)
}

// Profile returns the authorized account's email address.
func (c *Client) Profile(ctx context.Context) (string, error) {
	profile, err := c.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}
