package email

import (
	"context"
	"errors"
	"testing"

	"neurowind/shared/config"
	"neurowind/shared/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	cfg := &config.EmailConfig{FromEmail: "bot@example.com", FromName: "Wind Bot", SESConfigSet: "alerts"}
	s := NewSESSenderWithAPI(api, cfg, logging.Discard())

	err := s.Send(context.Background(), Message{
		To:       "ops@example.com",
		Subject:  "Strong wind alert: Korhogo",
		HTMLBody: "<p>wind</p>",
		TextBody: "wind",
	})
	require.NoError(t, err)

	require.NotNil(t, api.input)
	assert.Equal(t, `"Wind Bot" <bot@example.com>`, aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"ops@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Strong wind alert: Korhogo", aws.ToString(api.input.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>wind</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
	assert.Equal(t, "wind", aws.ToString(api.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "alerts", aws.ToString(api.input.ConfigurationSetName))
}

func TestSESSender_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"rejected", &sestypes.MessageRejected{Message: aws.String("bad")}, ReasonRejected},
		{"throttled", &sestypes.TooManyRequestsException{Message: aws.String("slow down")}, ReasonRateLimited},
		{"paused", &sestypes.SendingPausedException{Message: aws.String("paused")}, ReasonUnavailable},
		{"other", errors.New("network"), ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSESSenderWithAPI(&fakeSES{err: tt.err}, &config.EmailConfig{FromEmail: "bot@example.com"}, logging.Discard())
			err := s.Send(context.Background(), Message{To: "ops@example.com", Subject: "x", TextBody: "y"})

			var nerr *NotificationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, tt.want, nerr.Reason)
			assert.Equal(t, "ses", nerr.Provider)
		})
	}
}
