package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// scopes requested for every credential. Metadata-only: this tool never
// fetches message bodies.
var scopes = []string{gmailapi.GmailMetadataScope}

// ClientConfig describes where the OAuth client identity comes from. Sources
// are tried in order: explicit client ID/secret, a local client-secrets JSON
// file, then Google Secret Manager.
type ClientConfig struct {
	ClientID     string
	ClientSecret string

	CredentialsPath string

	GCPProjectID string
	GCPSecretID  string
}

// OAuthConfig resolves the client identity into an oauth2 config, or fails
// with ErrConfigUnavailable when no source yields one.
func (c ClientConfig) OAuthConfig(ctx context.Context) (*oauth2.Config, error) {
	if c.ClientID != "" && c.ClientSecret != "" {
		return &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}, nil
	}

	if c.CredentialsPath != "" {
		data, err := os.ReadFile(c.CredentialsPath)
		if err == nil {
			conf, err := google.ConfigFromJSON(data, scopes...)
			if err != nil {
				return nil, fmt.Errorf("failed to parse client secrets file %s: %w", c.CredentialsPath, err)
			}
			return conf, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read client secrets file: %w", err)
		}
		log.Debug().Str("path", c.CredentialsPath).Msg("client secrets file not found, trying secret manager")
	}

	if c.GCPProjectID != "" && c.GCPSecretID != "" {
		data, err := c.fetchSecret(ctx)
		if err != nil {
			return nil, err
		}
		conf, err := google.ConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secrets from secret manager: %w", err)
		}
		return conf, nil
	}

	return nil, ErrConfigUnavailable
}

// fetchSecret reads the latest version of the configured Secret Manager
// secret, which must hold a client-secrets JSON document.
func (c ClientConfig) fetchSecret(ctx context.Context) ([]byte, error) {
	svc, err := secretmanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProjectID, c.GCPSecretID)
	resp, err := svc.Projects.Secrets.Versions.Access(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("secret %s has no payload", name)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret payload: %w", err)
	}
	return data, nil
}
