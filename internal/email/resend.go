package email

import (
	"context"
	"fmt"

	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/resend/resend-go/v2"
)

// ResendSender implements Sender over the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(cfg *config.Config) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.EmailFrom,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend send failed: %w", err)
	}
	return sent.Id, nil
}
