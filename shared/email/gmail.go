package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"neurowind/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailSender delivers through the Gmail API with an OAuth2 token stored on disk.
type GmailSender struct {
	service *gmail.Service
	from    string
	logger  *slog.Logger
}

// GmailOAuthConfig returns the OAuth2 client configuration for sending mail.
func GmailOAuthConfig(cfg *config.EmailConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret.Unmask(),
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
}

func NewGmailSender(ctx context.Context, cfg *config.EmailConfig, logger *slog.Logger) (*GmailSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	oauthConfig := GmailOAuthConfig(cfg)

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no usable Gmail token in %s (run `neurowind gmail-auth` first): %w", cfg.TokenFile, err)
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, fmt.Errorf("Gmail token in %s is expired and has no refresh token", cfg.TokenFile)
	}

	tokenSource := &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
		logger:    logger,
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return NewGmailSenderWithService(service, fromAddress(cfg), logger), nil
}

// NewGmailSenderWithService wraps an existing service, for tests.
func NewGmailSenderWithService(service *gmail.Service, from string, logger *slog.Logger) *GmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailSender{service: service, from: from, logger: logger}
}

func (g *GmailSender) Name() string { return "gmail" }

func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	if err := checkRecipient(g.Name(), msg.To); err != nil {
		return err
	}

	raw := buildMIME(g.from, msg, time.Now())
	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return &NotificationError{Provider: g.Name(), Recipient: msg.To, Reason: classifyGoogleError(err), Err: err}
	}

	g.logger.Debug("gmail message sent", "id", sent.Id)
	return nil
}

func classifyGoogleError(err error) Reason {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return ReasonAuth
		case apiErr.Code == http.StatusTooManyRequests:
			return ReasonRateLimited
		case apiErr.Code == http.StatusBadRequest:
			return ReasonRejected
		case apiErr.Code >= 500:
			return ReasonUnavailable
		}
		return ReasonUnknown
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ReasonAuth
	}
	return ReasonConnection
}

// tokenSaver wraps an oauth2.TokenSource and writes refreshed tokens back to
// disk so they survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	logger    *slog.Logger
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			ts.logger.Warn("failed to save refreshed token", "error", err)
		} else {
			ts.logger.Info("token refreshed", "file", ts.tokenFile)
		}
	}

	return newToken, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
