package gmail

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthFlow obtains a brand-new credential when none can be loaded or
// refreshed. Deployments that cannot interact with a user substitute
// NoninteractiveFlow, which fails fast.
type AuthFlow interface {
	Run(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// NoninteractiveFlow refuses to authorize. Use it for unattended execution,
// where a missing credential must be fatal rather than hang waiting for a
// browser.
type NoninteractiveFlow struct{}

func (NoninteractiveFlow) Run(context.Context, *oauth2.Config) (*oauth2.Token, error) {
	return nil, fmt.Errorf("interactive authorization required but not permitted: %w", ErrAuthUnavailable)
}

// LocalServerFlow runs the OAuth2 authorization-code flow with a loopback
// redirect: it prints an authorization URL, waits for the browser callback on
// an ephemeral local port, and exchanges the code for a token.
type LocalServerFlow struct{}

func (LocalServerFlow) Run(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	// Copy so the shared config keeps no per-run redirect URL.
	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- fmt.Errorf("no code in callback: %s", r.URL.Query().Get("error"))
			fmt.Fprint(w, "Authorization failed. You can close this tab.")
			return
		}
		codeCh <- code
		fmt.Fprint(w, "Authorization successful! You can close this tab.")
	})

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Shutdown(ctx)

	url := flowConf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("\nOpen this URL in your browser to authorize mailstash:\n\n  %s\n\nWaiting for authorization...\n", url)

	select {
	case code := <-codeCh:
		token, err := flowConf.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return token, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
