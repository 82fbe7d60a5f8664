package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mailstash/mailstash/internal/domain"
	"github.com/mailstash/mailstash/internal/store"
)

func TestUpsertEmailIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	email := testEmail("m1")
	created, err := db.UpsertEmail(ctx, "a1", email)
	if err != nil {
		t.Fatalf("UpsertEmail: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}

	email.Subject = "updated subject"
	email.SizeEstimate = 2048
	created, err = db.UpsertEmail(ctx, "a1", email)
	if err != nil {
		t.Fatalf("UpsertEmail (second): %v", err)
	}
	if created {
		t.Error("second upsert should update, not create")
	}

	got, err := db.GetEmail(ctx, "a1", "m1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if got.Subject != "updated subject" {
		t.Errorf("Subject = %q, want %q", got.Subject, "updated subject")
	}
	if got.SizeEstimate != 2048 {
		t.Errorf("SizeEstimate = %d, want 2048", got.SizeEstimate)
	}

	var count int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM emails`).Scan(&count); err != nil {
		t.Fatalf("count emails: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d email rows, want 1", count)
	}
}

func TestUpsertEmailReplacesLabels(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	email := testEmail("m1")
	email.Labels = []string{"INBOX", "UNREAD"}
	if _, err := db.UpsertEmail(ctx, "a1", email); err != nil {
		t.Fatalf("UpsertEmail: %v", err)
	}

	email.Labels = []string{"INBOX"}
	if _, err := db.UpsertEmail(ctx, "a1", email); err != nil {
		t.Fatalf("UpsertEmail (second): %v", err)
	}

	got, err := db.GetEmail(ctx, "a1", "m1")
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "INBOX" {
		t.Errorf("Labels = %v, want exactly [INBOX]", got.Labels)
	}

	// Label rows themselves stay; only the association is removed.
	labels, err := db.ListLabels(ctx)
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(labels) != 2 {
		t.Errorf("got %d label rows, want 2 (UNREAD kept for reuse)", len(labels))
	}
}

func TestUpsertEmailSharedLabelRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	if _, err := db.UpsertEmail(ctx, "a1", testEmail("m1")); err != nil {
		t.Fatalf("UpsertEmail m1: %v", err)
	}
	if _, err := db.UpsertEmail(ctx, "a1", testEmail("m2")); err != nil {
		t.Fatalf("UpsertEmail m2: %v", err)
	}

	labels, err := db.ListLabels(ctx)
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(labels) != 1 {
		t.Errorf("got %d label rows, want 1 shared INBOX row", len(labels))
	}
}

func TestSameGmailIDAcrossAccounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")
	seedAccount(t, db, "a2")

	if _, err := db.UpsertEmail(ctx, "a1", testEmail("m1")); err != nil {
		t.Fatalf("UpsertEmail a1: %v", err)
	}
	created, err := db.UpsertEmail(ctx, "a2", testEmail("m1"))
	if err != nil {
		t.Fatalf("UpsertEmail a2: %v", err)
	}
	if !created {
		t.Error("same gmail_id under a different account should create a new row")
	}
}

func TestListEmailsOrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	old := testEmail("old")
	old.ReceivedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := testEmail("recent")
	recent.ReceivedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	recent.Labels = []string{"INBOX", "IMPORTANT"}

	for _, e := range []*domain.Email{old, recent} {
		if _, err := db.UpsertEmail(ctx, "a1", e); err != nil {
			t.Fatalf("UpsertEmail %s: %v", e.GmailID, err)
		}
	}

	emails, err := db.ListEmails(ctx, store.ListEmailOptions{AccountID: "a1"})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("got %d emails, want 2", len(emails))
	}
	if emails[0].GmailID != "recent" {
		t.Errorf("first email = %q, want newest first", emails[0].GmailID)
	}

	important, err := db.ListEmails(ctx, store.ListEmailOptions{AccountID: "a1", Label: "IMPORTANT"})
	if err != nil {
		t.Fatalf("ListEmails with label: %v", err)
	}
	if len(important) != 1 || important[0].GmailID != "recent" {
		t.Errorf("label filter returned %v, want only recent", important)
	}

	limited, err := db.ListEmails(ctx, store.ListEmailOptions{AccountID: "a1", Limit: 1})
	if err != nil {
		t.Fatalf("ListEmails with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d emails, want limit of 1 honored", len(limited))
	}
}

func TestWipeEmails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")
	seedAccount(t, db, "a2")

	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := db.UpsertEmail(ctx, "a1", testEmail(id)); err != nil {
			t.Fatalf("UpsertEmail: %v", err)
		}
	}
	if _, err := db.UpsertEmail(ctx, "a2", testEmail("other")); err != nil {
		t.Fatalf("UpsertEmail: %v", err)
	}

	count, err := db.WipeEmails(ctx, "a1")
	if err != nil {
		t.Fatalf("WipeEmails: %v", err)
	}
	if count != 3 {
		t.Errorf("wiped %d emails, want 3", count)
	}

	remaining, err := db.ListEmails(ctx, store.ListEmailOptions{AccountID: "a2"})
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other account has %d emails, want untouched 1", len(remaining))
	}

	count, err = db.WipeEmails(ctx, "a1")
	if err != nil {
		t.Fatalf("WipeEmails (empty): %v", err)
	}
	if count != 0 {
		t.Errorf("second wipe deleted %d, want 0", count)
	}
}

func TestSearchEmails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	invoice := testEmail("m1")
	invoice.Subject = "Your invoice for March"
	newsletter := testEmail("m2")
	newsletter.Subject = "Weekly newsletter"
	newsletter.SenderName = "Invoice Robot"

	for _, e := range []*domain.Email{invoice, newsletter} {
		if _, err := db.UpsertEmail(ctx, "a1", e); err != nil {
			t.Fatalf("UpsertEmail: %v", err)
		}
	}

	got, err := db.SearchEmails(ctx, "a1", "invoice")
	if err != nil {
		t.Fatalf("SearchEmails: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 (subject and sender both match)", len(got))
	}

	got, err = db.SearchEmails(ctx, "a1", "newsletter")
	if err != nil {
		t.Fatalf("SearchEmails: %v", err)
	}
	if len(got) != 1 || got[0].GmailID != "m2" {
		t.Errorf("search returned %v, want only m2", got)
	}
}

func TestSearchEmailsReflectsUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	email := testEmail("m1")
	email.Subject = "draft agenda"
	if _, err := db.UpsertEmail(ctx, "a1", email); err != nil {
		t.Fatalf("UpsertEmail: %v", err)
	}

	email.Subject = "final agenda"
	if _, err := db.UpsertEmail(ctx, "a1", email); err != nil {
		t.Fatalf("UpsertEmail (update): %v", err)
	}

	got, err := db.SearchEmails(ctx, "a1", "draft")
	if err != nil {
		t.Fatalf("SearchEmails: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stale index entry still matches: %v", got)
	}

	got, err = db.SearchEmails(ctx, "a1", "final")
	if err != nil {
		t.Fatalf("SearchEmails: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("updated subject not searchable, got %v", got)
	}
}
