package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig holds the Postmark credentials and sender identity.
// DefaultFrom is used when a message does not carry its own fromEmail.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	DefaultFrom  string `env:"POSTMARK_DEFAULT_FROM,required"`
}

type postmarkSender struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkSender creates a Postmark-backed email sender. Both tokens are
// required so a misconfigured host fails at construction, not mid-delivery.
func NewPostmarkSender(cfg PostmarkConfig) (Sender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", ErrInvalidConfig)
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("%w: DefaultFrom is required", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send delivers an email payload through Postmark's transactional API.
// Non-email payloads are rejected: this sender serves exactly one transport.
func (s *postmarkSender) Send(ctx context.Context, payload Payload) error {
	p, ok := payload.(EmailPayload)
	if !ok {
		return fmt.Errorf("%w: postmark sender got %q payload", ErrUnsupportedPayload, payload.Service())
	}

	from := p.From
	if from == "" {
		from = s.config.DefaultFrom
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     from,
		To:       p.To,
		Subject:  p.Subject,
		HTMLBody: p.HTML,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
