package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"neurowind/shared/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SES v2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through AWS SES v2. Credentials come from the default AWS chain.
type SESSender struct {
	api       SESAPI
	from      string
	configSet string
	logger    *slog.Logger
}

func NewSESSender(ctx context.Context, cfg *config.EmailConfig, logger *slog.Logger) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESSenderWithAPI(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewSESSenderWithAPI builds a sender around any SESAPI implementation.
func NewSESSenderWithAPI(api SESAPI, cfg *config.EmailConfig, logger *slog.Logger) *SESSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESSender{
		api:       api,
		from:      fromAddress(cfg),
		configSet: cfg.SESConfigSet,
		logger:    logger,
	}
}

func (s *SESSender) Name() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if err := checkRecipient(s.Name(), msg.To); err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{},
			},
		},
	}
	if msg.HTMLBody != "" {
		input.Content.Simple.Body.Html = &sestypes.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}
	if msg.TextBody != "" {
		input.Content.Simple.Body.Text = &sestypes.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}
	if s.configSet != "" {
		input.ConfigurationSetName = aws.String(s.configSet)
	}

	out, err := s.api.SendEmail(ctx, input)
	if err != nil {
		return &NotificationError{Provider: s.Name(), Recipient: msg.To, Reason: classifySESError(err), Err: err}
	}

	if out.MessageId != nil {
		s.logger.Debug("ses message sent", "id", *out.MessageId)
	}
	return nil
}

func classifySESError(err error) Reason {
	var rejected *sestypes.MessageRejected
	if errors.As(err, &rejected) {
		return ReasonRejected
	}
	var tooMany *sestypes.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return ReasonRateLimited
	}
	var paused *sestypes.SendingPausedException
	if errors.As(err, &paused) {
		return ReasonUnavailable
	}
	var notFound *sestypes.NotFoundException
	if errors.As(err, &notFound) {
		return ReasonRejected
	}
	return ReasonUnknown
}
