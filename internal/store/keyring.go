package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "mailstash"

// KeyringCredentialStore persists credential blobs in the OS keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service).
type KeyringCredentialStore struct{}

// NewKeyringCredentialStore returns a new KeyringCredentialStore.
func NewKeyringCredentialStore() *KeyringCredentialStore {
	return &KeyringCredentialStore{}
}

// Get retrieves the credential blob for the given account ID.
func (k *KeyringCredentialStore) Get(_ context.Context, accountID string) ([]byte, error) {
	data, err := keyring.Get(serviceName, accountID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential from keyring: %w", err)
	}
	return []byte(data), nil
}

// Put stores the credential blob for the given account ID.
func (k *KeyringCredentialStore) Put(_ context.Context, accountID string, blob []byte) error {
	if err := keyring.Set(serviceName, accountID, string(blob)); err != nil {
		return fmt.Errorf("failed to save credential to keyring: %w", err)
	}
	return nil
}

// Delete removes the credential blob for the given account ID.
func (k *KeyringCredentialStore) Delete(_ context.Context, accountID string) error {
	if err := keyring.Delete(serviceName, accountID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credential from keyring: %w", err)
	}
	return nil
}

var _ CredentialStore = (*KeyringCredentialStore)(nil)
