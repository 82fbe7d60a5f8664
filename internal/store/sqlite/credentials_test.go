package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mailstash/mailstash/internal/store"
)

func TestCredentialStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creds := db.Credentials()

	if _, err := creds.Get(ctx, "acct"); !errors.Is(err, store.ErrNoCredential) {
		t.Fatalf("Get on empty store = %v, want ErrNoCredential", err)
	}

	if err := creds.Put(ctx, "acct", []byte("blob-v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := creds.Get(ctx, "acct")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("blob-v1")) {
		t.Errorf("Get = %q, want %q", got, "blob-v1")
	}

	// Put is an upsert.
	if err := creds.Put(ctx, "acct", []byte("blob-v2")); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	got, err = creds.Get(ctx, "acct")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("blob-v2")) {
		t.Errorf("Get = %q, want %q", got, "blob-v2")
	}

	if err := creds.Delete(ctx, "acct"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := creds.Get(ctx, "acct"); !errors.Is(err, store.ErrNoCredential) {
		t.Errorf("Get after delete = %v, want ErrNoCredential", err)
	}

	// Deleting a missing credential is not an error.
	if err := creds.Delete(ctx, "acct"); err != nil {
		t.Errorf("Delete (missing): %v", err)
	}
}

func TestCredentialStoreBeforeAccountExists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creds := db.Credentials()

	// The OAuth flow persists a token before the account row is created.
	if err := creds.Put(ctx, "not-yet-an-account", []byte("tok")); err != nil {
		t.Fatalf("Put without account row: %v", err)
	}
}
