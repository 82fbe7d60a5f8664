package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailstash/mailstash/internal/store"
)

// CredentialStore persists credential blobs in the credentials table. It is
// the alternative to the OS keyring for headless hosts; select it with
// auth.credential_store = "db" in the config.
type CredentialStore struct {
	db *DB
}

// Credentials returns a CredentialStore backed by this database.
func (s *DB) Credentials() *CredentialStore {
	return &CredentialStore{db: s}
}

func (c *CredentialStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	var blob []byte
	err := c.db.db.QueryRowContext(ctx,
		`SELECT blob FROM credentials WHERE account_id = ?`, accountID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential for %s: %w", accountID, err)
	}
	return blob, nil
}

func (c *CredentialStore) Put(ctx context.Context, accountID string, blob []byte) error {
	_, err := c.db.db.ExecContext(ctx, `
		INSERT INTO credentials (account_id, blob, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(account_id) DO UPDATE SET
			blob       = excluded.blob,
			updated_at = excluded.updated_at`,
		accountID, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential for %s: %w", accountID, err)
	}
	return nil
}

func (c *CredentialStore) Delete(ctx context.Context, accountID string) error {
	_, err := c.db.db.ExecContext(ctx, `DELETE FROM credentials WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete credential for %s: %w", accountID, err)
	}
	return nil
}

var _ store.CredentialStore = (*CredentialStore)(nil)
