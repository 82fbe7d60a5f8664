package gmail

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gmailapi "google.golang.org/api/gmail/v1"
)

const (
	defaultBatchURL = "https://gmail.googleapis.com/batch/gmail/v1"

	// batchGroupSize is how many metadata gets fit in one batch request.
	batchGroupSize = 50

	// batchMaxAttempts bounds attempts per group: one initial request plus
	// retries of the rate-limited subset, waiting 2^attempt seconds between.
	batchMaxAttempts = 3

	// groupPause is the courtesy wait between consecutive groups.
	groupPause = time.Second
)

// metadataHeaders are the only headers requested per message.
var metadataHeaders = []string{"Subject", "From", "Date", "Content-Type"}

// BatchFetcher retrieves per-message metadata in grouped HTTP requests
// against the Gmail batch endpoint. The generated Go client has no batch
// support, so the multipart/mixed framing is spoken directly.
type BatchFetcher struct {
	httpClient *http.Client
	url        string
	sleep      func(time.Duration)
}

// NewBatchFetcher returns a BatchFetcher issuing requests through the given
// (authorized) HTTP client.
func NewBatchFetcher(httpClient *http.Client) *BatchFetcher {
	return &BatchFetcher{
		httpClient: httpClient,
		url:        defaultBatchURL,
		sleep:      time.Sleep,
	}
}

// FetchDetails fetches metadata for the given message IDs, 50 per batch
// request. IDs that fail with a rate-limit signal are retried alone with
// exponential backoff; IDs that fail any other way are logged and dropped.
// Best-effort: the result may be shorter than the input, and its order does
// not correspond to the input order.
func (f *BatchFetcher) FetchDetails(ctx context.Context, ids []string) ([]*gmailapi.Message, error) {
	var all []*gmailapi.Message

	for start := 0; start < len(ids); start += batchGroupSize {
		end := min(start+batchGroupSize, len(ids))

		remaining := ids[start:end]
		for attempt := 0; attempt < batchMaxAttempts; attempt++ {
			msgs, rateLimited, err := f.fetchGroup(ctx, remaining)
			if err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				log.Error().Err(err).Int("group_size", len(remaining)).
					Msg("batch request failed, dropping group")
				remaining = nil
				break
			}

			all = append(all, msgs...)
			remaining = rateLimited
			if len(remaining) == 0 || attempt == batchMaxAttempts-1 {
				break
			}

			wait := time.Duration(1<<attempt) * time.Second
			log.Warn().Int("rate_limited", len(remaining)).Dur("wait", wait).
				Int("attempt", attempt+2).Int("max_attempts", batchMaxAttempts).
				Msg("rate limited, backing off before retrying failed subset")
			f.sleep(wait)
		}
		if len(remaining) > 0 {
			log.Error().Int("dropped", len(remaining)).
				Msgf("failed to fetch messages after %d attempts", batchMaxAttempts)
		}

		if end < len(ids) {
			f.sleep(groupPause)
		}
	}

	log.Info().Int("fetched", len(all)).Int("requested", len(ids)).Msg("batch metadata fetch complete")
	return all, nil
}

// fetchGroup issues one batch request for the given IDs and splits the
// results into successes and the subset that hit a rate limit. Items are
// correlated to request IDs through the part Content-ID, never by position.
func (f *BatchFetcher) fetchGroup(ctx context.Context, ids []string) ([]*gmailapi.Message, []string, error) {
	boundary := fmt.Sprintf("batch_%d", time.Now().UnixNano())

	var body bytes.Buffer
	for i, id := range ids {
		fmt.Fprintf(&body, "--%s\r\n", boundary)
		body.WriteString("Content-Type: application/http\r\n")
		fmt.Fprintf(&body, "Content-ID: <item-%d>\r\n", i)
		body.WriteString("Content-Transfer-Encoding: binary\r\n\r\n")
		fmt.Fprintf(&body, "GET /gmail/v1/users/me/messages/%s?%s HTTP/1.1\r\n\r\n",
			url.PathEscape(id), metadataQuery())
	}
	fmt.Fprintf(&body, "--%s--\r\n", boundary)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, &body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/mixed; boundary="+boundary)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		if isRateLimit(resp.StatusCode, respBody) {
			// Whole-request rejection: every ID in the group is retryable.
			return nil, ids, nil
		}
		return nil, nil, fmt.Errorf("gmail batch API: %s", batchErrorMessage(resp.Status, respBody))
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, nil, fmt.Errorf("unexpected batch content type: %s", resp.Header.Get("Content-Type"))
	}

	var msgs []*gmailapi.Message
	var rateLimited []string

	reader := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read batch part: %w", err)
		}

		id := idForContentID(part.Header.Get("Content-ID"), ids)
		partBytes, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil || len(partBytes) == 0 {
			log.Error().Str("gmail_id", id).Msg("unreadable batch part, dropping")
			continue
		}

		itemResp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(partBytes)), &http.Request{Method: http.MethodGet})
		if err != nil {
			log.Error().Str("gmail_id", id).Err(err).Msg("malformed batch item response, dropping")
			continue
		}
		itemBody, err := io.ReadAll(itemResp.Body)
		_ = itemResp.Body.Close()
		if err != nil {
			log.Error().Str("gmail_id", id).Err(err).Msg("failed to read batch item body, dropping")
			continue
		}

		switch {
		case itemResp.StatusCode == http.StatusOK:
			var msg gmailapi.Message
			if err := json.Unmarshal(itemBody, &msg); err != nil {
				log.Error().Str("gmail_id", id).Err(err).Msg("undecodable batch item, dropping")
				continue
			}
			msgs = append(msgs, &msg)
		case isRateLimit(itemResp.StatusCode, itemBody):
			if id != "" {
				rateLimited = append(rateLimited, id)
			}
		default:
			log.Error().Str("gmail_id", id).Int("status", itemResp.StatusCode).
				Msg("batch item failed, dropping")
		}
	}

	return msgs, rateLimited, nil
}

func metadataQuery() string {
	q := url.Values{}
	q.Set("format", "metadata")
	for _, h := range metadataHeaders {
		q.Add("metadataHeaders", h)
	}
	return q.Encode()
}

// idForContentID maps a response part back to the requested message ID. The
// server echoes the request Content-ID as <response-item-N>.
func idForContentID(contentID string, ids []string) string {
	s := strings.Trim(contentID, "<> ")
	s = strings.TrimPrefix(s, "response-")
	s = strings.TrimPrefix(s, "item-")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= len(ids) {
		return ""
	}
	return ids[n]
}

// isRateLimit reports whether a status is a rate-limit signal. Gmail reports
// per-user quota hits as 403 rateLimitExceeded as well as plain 429.
func isRateLimit(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status == http.StatusForbidden && bytes.Contains(body, []byte("ateLimitExceeded"))
}

func batchErrorMessage(status string, body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return status
}
