package cli

import (
	"time"

	"github.com/mailstash/mailstash/internal/app"
	"github.com/mailstash/mailstash/internal/domain"
)

// JSON output shapes for --json mode. Kept separate from the domain types so
// the wire format stays stable even when internal fields change.

type jsonAccount struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type jsonEmail struct {
	GmailID      string   `json:"gmail_id"`
	Subject      string   `json:"subject"`
	SenderName   string   `json:"sender_name"`
	SenderEmail  string   `json:"sender_email"`
	ReceivedAt   string   `json:"received_at"`
	ContentType  string   `json:"content_type"`
	SizeEstimate int64    `json:"size_estimate"`
	Importance   int      `json:"importance"`
	Labels       []string `json:"labels"`
}

type jsonLabel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type jsonAction struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Email  string `json:"email,omitempty"`
}

type jsonWipe struct {
	OK        bool   `json:"ok"`
	AccountID string `json:"account_id"`
	Deleted   int64  `json:"deleted"`
}

type jsonSyncStats struct {
	AccountID string `json:"account_id"`
	Fetched   int    `json:"fetched"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Errors    int    `json:"errors"`
}

func toJSONAccounts(accounts []domain.Account) []jsonAccount {
	out := make([]jsonAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, jsonAccount{
			ID:        a.ID,
			Email:     a.Email,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func toJSONEmail(e domain.Email) jsonEmail {
	labels := e.Labels
	if labels == nil {
		labels = []string{}
	}
	return jsonEmail{
		GmailID:      e.GmailID,
		Subject:      e.Subject,
		SenderName:   e.SenderName,
		SenderEmail:  e.SenderEmail,
		ReceivedAt:   e.ReceivedAt.Format(time.RFC3339),
		ContentType:  e.ContentType,
		SizeEstimate: e.SizeEstimate,
		Importance:   e.Importance,
		Labels:       labels,
	}
}

func toJSONEmails(emails []domain.Email) []jsonEmail {
	out := make([]jsonEmail, 0, len(emails))
	for _, e := range emails {
		out = append(out, toJSONEmail(e))
	}
	return out
}

func toJSONLabels(labels []domain.Label) []jsonLabel {
	out := make([]jsonLabel, 0, len(labels))
	for _, l := range labels {
		out = append(out, jsonLabel{ID: l.ID, Name: l.Name})
	}
	return out
}

func toJSONSyncStats(accountID string, stats *app.RunStats) jsonSyncStats {
	return jsonSyncStats{
		AccountID: accountID,
		Fetched:   stats.Fetched,
		Created:   stats.Created,
		Updated:   stats.Updated,
		Errors:    stats.Errors,
	}
}
