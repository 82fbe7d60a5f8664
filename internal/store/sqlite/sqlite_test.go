package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mailstash/mailstash/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedAccount(t *testing.T, db *DB, id string) {
	t.Helper()
	if err := db.CreateAccount(context.Background(), &domain.Account{
		ID:    id,
		Email: id + "@example.com",
	}); err != nil {
		t.Fatalf("failed to seed account %s: %v", id, err)
	}
}

func testEmail(gmailID string) *domain.Email {
	return &domain.Email{
		GmailID:      gmailID,
		Subject:      "hello " + gmailID,
		SenderName:   "Sender",
		SenderEmail:  "sender@example.com",
		ReceivedAt:   time.Date(2026, 2, 1, 3, 33, 3, 0, time.UTC),
		ContentType:  "text/plain",
		SizeEstimate: 1024,
		Importance:   domain.DefaultImportance,
		Labels:       []string{"INBOX"},
	}
}

func TestAccountCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	acct := &domain.Account{ID: "a1", Email: "a1@example.com", DisplayName: "A One"}
	if err := db.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	got, err := db.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Email != "a1@example.com" || got.DisplayName != "A One" {
		t.Errorf("got %+v, want email and display name preserved", got)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("CreatedAt should be set by the database")
	}

	if err := db.CreateAccount(ctx, acct); err == nil {
		t.Error("duplicate account ID should fail")
	}

	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(accounts))
	}

	if err := db.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := db.GetAccount(ctx, "a1"); err == nil {
		t.Error("GetAccount after delete should fail")
	}
}

func TestDeleteAccountCascadesToEmails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "a1")

	if _, err := db.UpsertEmail(ctx, "a1", testEmail("m1")); err != nil {
		t.Fatalf("UpsertEmail: %v", err)
	}
	if err := db.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	var count int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM emails`).Scan(&count); err != nil {
		t.Fatalf("count emails: %v", err)
	}
	if count != 0 {
		t.Errorf("emails remaining after account delete: %d", count)
	}
}
