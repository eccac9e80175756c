package email

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"neurowind/shared/config"

	"golang.org/x/oauth2"
)

// AuthorizeGmail runs the installed-application OAuth flow: it listens on a
// loopback port, prints the consent URL, waits for Google's redirect and saves
// the resulting token to cfg.TokenFile.
func AuthorizeGmail(ctx context.Context, cfg *config.EmailConfig, out io.Writer) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("unable to open loopback listener: %w", err)
	}
	defer listener.Close()

	oauthConfig := GmailOAuthConfig(cfg)
	oauthConfig.RedirectURL = "http://" + listener.Addr().String() + "/callback"

	state, err := randomState()
	if err != nil {
		return err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				errCh <- errors.New("oauth state mismatch")
				return
			}
			if e := q.Get("error"); e != "" {
				http.Error(w, "authorization denied", http.StatusForbidden)
				errCh <- fmt.Errorf("authorization denied: %s", e)
				return
			}
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			codeCh <- q.Get("code")
		}),
	}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintln(out, "GMAIL AUTHORIZATION REQUIRED")
	fmt.Fprintf(out, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(out, "Open this URL in a browser on this machine:\n\n  %s\n\n", oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))
	fmt.Fprintln(out, "Waiting for authorization to complete... (Ctrl+C to cancel)")

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	if err := saveToken(cfg.TokenFile, tok); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAuthorization successful. Token saved to %s\n", cfg.TokenFile)
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("unable to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
