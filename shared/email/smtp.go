package email

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"neurowind/shared/config"
)

const implicitTLSPort = 465

type SMTPSender struct {
	config  *config.EmailConfig
	logger  *slog.Logger
	timeout time.Duration
}

func NewSMTPSender(cfg *config.EmailConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		config:  cfg,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

// Send delivers msg over SMTP. Port 465 uses implicit TLS; any other port uses
// STARTTLS when the server offers it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := checkRecipient(s.Name(), msg.To); err != nil {
		return err
	}

	raw := buildMIME(fromAddress(s.config), msg, time.Now())
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password.Unmask(), s.config.SMTPServer)
	addr := net.JoinHostPort(s.config.SMTPServer, strconv.Itoa(s.config.SMTPPort))

	var err error
	if s.config.SMTPPort == implicitTLSPort {
		err = s.sendImplicitTLS(ctx, addr, auth, msg.To, raw)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{msg.To}, raw)
	}
	if err != nil {
		return &NotificationError{Provider: s.Name(), Recipient: msg.To, Reason: classifySMTPError(err), Err: err}
	}
	return nil
}

func (s *SMTPSender) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, to string, raw []byte) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.timeout},
		Config:    &tls.Config{ServerName: s.config.SMTPServer, MinVersion: tls.VersionTLS12},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, s.config.SMTPServer)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(s.config.FromEmail); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func classifySMTPError(err error) Reason {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535:
			return ReasonAuth
		case protoErr.Code == 421 || protoErr.Code == 450 || protoErr.Code == 451:
			return ReasonUnavailable
		case protoErr.Code == 452:
			return ReasonRateLimited
		case protoErr.Code >= 550 && protoErr.Code <= 554:
			return ReasonRejected
		}
		return ReasonUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonConnection
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return ReasonConnection
	}
	return ReasonUnknown
}
