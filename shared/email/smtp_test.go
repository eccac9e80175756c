package email

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"neurowind/shared/config"
	"neurowind/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts one session and answers AUTH with authCode.
func fakeSMTP(t *testing.T, authCode int) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch strings.ToUpper(strings.SplitN(line, " ", 2)[0]) {
			case "EHLO":
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 AUTH PLAIN")
			case "AUTH":
				if authCode == 235 {
					_ = tp.PrintfLine("235 2.7.0 Authentication successful")
				} else {
					_ = tp.PrintfLine("%d 5.7.8 Username and Password not accepted", authCode)
				}
			case "DATA":
				_ = tp.PrintfLine("354 Go ahead")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				received <- string(data)
				_ = tp.PrintfLine("250 2.0.0 OK queued")
			case "QUIT":
				_ = tp.PrintfLine("221 2.0.0 Bye")
				return
			default:
				_ = tp.PrintfLine("250 OK")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, received
}

func smtpConfig(host string, port int) *config.EmailConfig {
	return &config.EmailConfig{
		Provider:   "smtp",
		SMTPServer: host,
		SMTPPort:   port,
		Username:   "bot@example.com",
		Password:   config.SecretString("app-password"),
		FromEmail:  "bot@example.com",
	}
}

func TestSMTPSender_Send(t *testing.T) {
	host, port, received := fakeSMTP(t, 235)
	s := NewSMTPSender(smtpConfig(host, port), logging.Discard())

	err := s.Send(context.Background(), Message{
		To:       "ops@example.com",
		Subject:  "Strong wind alert: Abidjan",
		TextBody: "Alert: strong wind detected in Abidjan (34.6 km/h)",
	})
	require.NoError(t, err)

	data := <-received
	assert.Contains(t, data, "Subject: Strong wind alert: Abidjan")
	assert.Contains(t, data, "(34.6 km/h)")
}

func TestSMTPSender_AuthFailure(t *testing.T) {
	host, port, _ := fakeSMTP(t, 535)
	s := NewSMTPSender(smtpConfig(host, port), logging.Discard())

	err := s.Send(context.Background(), Message{To: "ops@example.com", Subject: "x", TextBody: "y"})
	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ReasonAuth, nerr.Reason)
	assert.Equal(t, "smtp", nerr.Provider)
}

func TestSMTPSender_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := NewSMTPSender(smtpConfig("127.0.0.1", port), logging.Discard())
	err = s.Send(context.Background(), Message{To: "ops@example.com", Subject: "x", TextBody: "y"})

	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ReasonConnection, nerr.Reason)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	s := NewSMTPSender(smtpConfig("127.0.0.1", 25), logging.Discard())
	err := s.Send(context.Background(), Message{To: "nobody"})

	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ReasonInvalidRecipient, nerr.Reason)
}

func TestClassifySMTPError(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{&textproto.Error{Code: 535}, ReasonAuth},
		{&textproto.Error{Code: 421}, ReasonUnavailable},
		{&textproto.Error{Code: 452}, ReasonRateLimited},
		{&textproto.Error{Code: 550}, ReasonRejected},
		{&textproto.Error{Code: 503}, ReasonUnknown},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, ReasonConnection},
		{errors.New("mystery"), ReasonUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifySMTPError(tt.err), "%v", tt.err)
	}
}
