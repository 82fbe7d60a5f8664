package store

import (
	"context"
	"errors"
	"time"

	"github.com/mailstash/mailstash/internal/domain"
)

// ErrNoCredential is returned by CredentialStore.Get when no credential has
// been stored for the account.
var ErrNoCredential = errors.New("no stored credential")

// CredentialStore persists a per-account opaque authorization blob. The store
// does not interpret the blob; the auth layer serializes whatever it needs.
type CredentialStore interface {
	Get(ctx context.Context, accountID string) ([]byte, error)
	Put(ctx context.Context, accountID string, blob []byte) error
	Delete(ctx context.Context, accountID string) error
}

// Store defines the persistence interface for the application.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// Emails. UpsertEmail reconciles one record keyed by (account, gmail_id):
	// it creates the record or fully replaces every non-key field, and sets
	// the label associations to exactly the record's label set. The returned
	// bool reports whether a new row was created.
	UpsertEmail(ctx context.Context, accountID string, email *domain.Email) (bool, error)
	GetEmail(ctx context.Context, accountID, gmailID string) (*domain.Email, error)
	ListEmails(ctx context.Context, opts ListEmailOptions) ([]domain.Email, error)
	SearchEmails(ctx context.Context, accountID, query string) ([]domain.Email, error)
	WipeEmails(ctx context.Context, accountID string) (int64, error)

	// Labels
	GetOrCreateLabel(ctx context.Context, name string) (*domain.Label, error)
	ListLabels(ctx context.Context) ([]domain.Label, error)

	// Sync run history
	RecordSyncRun(ctx context.Context, run *SyncRun) error
	LastSyncRun(ctx context.Context, accountID string) (*SyncRun, error)

	// Lifecycle
	Close() error
}

// ListEmailOptions configures email listing queries.
type ListEmailOptions struct {
	AccountID string
	Label     string
	Limit     int
	Offset    int
}

// SyncRun records the outcome of one sync invocation.
type SyncRun struct {
	ID         int64
	AccountID  string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Created    int
	Updated    int
	Errors     int
}
