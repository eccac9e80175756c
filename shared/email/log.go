package email

import (
	"context"
	"log/slog"

	"neurowind/shared/logging"
)

// LogSender writes alerts to the log instead of delivering them. It is the
// provider used when no mail credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (l *LogSender) Name() string { return "log" }

func (l *LogSender) Send(ctx context.Context, msg Message) error {
	if err := checkRecipient(l.Name(), msg.To); err != nil {
		return err
	}
	l.logger.Info("alert email (log provider)",
		"to", logging.RedactEmail(msg.To),
		"subject", msg.Subject,
		"body", msg.TextBody)
	return nil
}
