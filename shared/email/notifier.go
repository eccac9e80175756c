package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"time"

	"neurowind/shared/config"
	"neurowind/shared/logging"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Notifier delivers messages. Every failure comes back as a *NotificationError.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Reason classifies a delivery failure.
type Reason string

const (
	ReasonInvalidRecipient Reason = "invalid_recipient"
	ReasonAuth             Reason = "auth"
	ReasonConnection       Reason = "connection"
	ReasonRejected         Reason = "rejected"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonUnavailable      Reason = "unavailable"
	ReasonUnknown          Reason = "unknown"
)

// ErrNotification is matched by every *NotificationError.
var ErrNotification = errors.New("notification failed")

// NotificationError reports a failed delivery. The recipient is redacted in Error.
type NotificationError struct {
	Provider  string
	Recipient string
	Reason    Reason
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed (%s): %v", e.Provider, logging.RedactEmail(e.Recipient), e.Reason, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func (e *NotificationError) Is(target error) bool { return target == ErrNotification }

// NewNotifier builds the notifier selected by cfg.Provider.
func NewNotifier(ctx context.Context, cfg *config.EmailConfig, logger *slog.Logger) (Notifier, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg, logger), nil
	case "gmail":
		return NewGmailSender(ctx, cfg, logger)
	case "ses":
		return NewSESSender(ctx, cfg, logger)
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// UnavailableSender stands in for a provider whose setup failed. Every Send
// reports the setup error so the rest of the program keeps running.
type UnavailableSender struct {
	provider string
	err      error
}

func NewUnavailableSender(provider string, err error) *UnavailableSender {
	return &UnavailableSender{provider: provider, err: err}
}

func (u *UnavailableSender) Name() string { return u.provider }

func (u *UnavailableSender) Send(ctx context.Context, msg Message) error {
	return &NotificationError{Provider: u.provider, Recipient: msg.To, Reason: ReasonAuth, Err: u.err}
}

func checkRecipient(provider, to string) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return &NotificationError{Provider: provider, Recipient: to, Reason: ReasonInvalidRecipient, Err: err}
	}
	return nil
}

// buildMIME renders msg as an RFC 5322 message with text and HTML alternatives.
func buildMIME(from string, msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, _ := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		_, _ = w.Write([]byte(p.body))
	}
	_ = mw.Close()

	return buf.Bytes()
}

func fromAddress(cfg *config.EmailConfig) string {
	if cfg.FromName == "" {
		return cfg.FromEmail
	}
	return (&mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String()
}
