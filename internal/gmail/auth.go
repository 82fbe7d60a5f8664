package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/mailstash/mailstash/internal/store"
)

// Authenticator produces valid OAuth2 tokens for accounts: it loads the
// stored credential, refreshes it when expired, deletes it when the provider
// has revoked the refresh token, and as a last resort runs the configured
// AuthFlow. Refreshed and newly minted tokens are persisted back to the
// credential store.
type Authenticator struct {
	creds store.CredentialStore
	flow  AuthFlow

	loadConfig func(ctx context.Context) (*oauth2.Config, error)

	confMu sync.Mutex
	conf   *oauth2.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAuthenticator returns an Authenticator using the given credential store,
// client configuration source, and authorization flow.
func NewAuthenticator(creds store.CredentialStore, clientCfg ClientConfig, flow AuthFlow) *Authenticator {
	return &Authenticator{
		creds:      creds,
		flow:       flow,
		loadConfig: clientCfg.OAuthConfig,
		locks:      make(map[string]*sync.Mutex),
	}
}

// accountLock serializes credential mutation per account, so two concurrent
// syncs can't overwrite each other's refreshed token with a stale one.
func (a *Authenticator) accountLock(accountID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[accountID] = l
	}
	return l
}

func (a *Authenticator) oauthConfig(ctx context.Context) (*oauth2.Config, error) {
	a.confMu.Lock()
	defer a.confMu.Unlock()
	if a.conf != nil {
		return a.conf, nil
	}
	conf, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	a.conf = conf
	return conf, nil
}

// Token returns a valid token for the account. It fails with
// ErrAuthUnavailable (wrapped) when no credential can be produced, and with
// ErrConfigUnavailable when the client identity cannot be resolved.
func (a *Authenticator) Token(ctx context.Context, accountID string) (*oauth2.Token, error) {
	lock := a.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	tok, err := a.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		fresh, err := a.refresh(ctx, accountID, tok)
		if err == nil {
			return fresh, nil
		}
		if !isInvalidGrant(err) {
			return nil, err
		}
		// The provider revoked or expired the refresh token. The stored
		// credential is unusable; remove it rather than leave it stale.
		log.Warn().Str("account", accountID).Msg("refresh token rejected, deleting stored credential")
		if err := a.creds.Delete(ctx, accountID); err != nil {
			return nil, fmt.Errorf("failed to delete stale credential: %w", err)
		}
	}

	return a.authorize(ctx, accountID)
}

// TokenSource returns an auto-refreshing token source for the account, for
// wiring into the Gmail API client.
func (a *Authenticator) TokenSource(ctx context.Context, accountID string) (oauth2.TokenSource, error) {
	tok, err := a.Token(ctx, accountID)
	if err != nil {
		return nil, err
	}
	conf, err := a.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}
	return conf.TokenSource(ctx, tok), nil
}

// load returns the stored token, or nil when none is stored or the blob does
// not deserialize (treated as no credential).
func (a *Authenticator) load(ctx context.Context, accountID string) (*oauth2.Token, error) {
	blob, err := a.creds.Get(ctx, accountID)
	if errors.Is(err, store.ErrNoCredential) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	tok := new(oauth2.Token)
	if err := json.Unmarshal(blob, tok); err != nil {
		log.Warn().Str("account", accountID).Err(err).Msg("stored credential is malformed, ignoring")
		return nil, nil
	}
	return tok, nil
}

func (a *Authenticator) refresh(ctx context.Context, accountID string, tok *oauth2.Token) (*oauth2.Token, error) {
	conf, err := a.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}

	fresh, err := conf.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	// Refresh responses often omit the refresh token; keep the one we have.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	if err := a.persist(ctx, accountID, fresh); err != nil {
		return nil, err
	}
	log.Debug().Str("account", accountID).Msg("refreshed credential")
	return fresh, nil
}

func (a *Authenticator) authorize(ctx context.Context, accountID string) (*oauth2.Token, error) {
	conf, err := a.oauthConfig(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := a.flow.Run(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err := a.persist(ctx, accountID, tok); err != nil {
		return nil, err
	}
	log.Info().Str("account", accountID).Msg("authorized new credential")
	return tok, nil
}

func (a *Authenticator) persist(ctx context.Context, accountID string, tok *oauth2.Token) error {
	blob, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := a.creds.Put(ctx, accountID, blob); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// isInvalidGrant reports whether a refresh failure means the refresh token
// itself is dead (revoked or expired), as opposed to a transient error.
func isInvalidGrant(err error) bool {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return false
	}
	return rErr.ErrorCode == "invalid_grant" || strings.Contains(string(rErr.Body), "invalid_grant")
}
