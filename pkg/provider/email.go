package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"
)

// ErrEmailSendFailed wraps delivery failures from the email backend.
var ErrEmailSendFailed = errors.New("provider.errors.email_send_failed")

// PostmarkEmail delivers transactional email through Postmark.
type PostmarkEmail struct {
	client *postmark.Client
	sender string
}

// NewPostmarkEmail builds a Postmark backend from its settings. The
// "server_token" and "sender" settings are required.
func NewPostmarkEmail(s Settings) (*PostmarkEmail, error) {
	serverToken := s.String("server_token", "")
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server_token is required", ErrInvalidConfig)
	}
	sender := s.String("sender", "")
	if sender == "" {
		return nil, fmt.Errorf("%w: postmark sender is required", ErrInvalidConfig)
	}
	return &PostmarkEmail{
		client: postmark.NewClient(serverToken, s.String("account_token", "")),
		sender: sender,
	}, nil
}

func (p *PostmarkEmail) SendEmail(ctx context.Context, recipient, subject, body string) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.sender,
		To:         recipient,
		Subject:    subject,
		HTMLBody:   body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrEmailSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrEmailSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

// DevEmail writes outgoing email to the log instead of delivering it.
type DevEmail struct {
	log *slog.Logger
}

// NewDevEmail builds the log-only email backend.
func NewDevEmail(log *slog.Logger) *DevEmail {
	if log == nil {
		log = slog.Default()
	}
	return &DevEmail{log: log}
}

func (d *DevEmail) SendEmail(ctx context.Context, recipient, subject, body string) error {
	d.log.InfoContext(ctx, "dev email",
		slog.String("recipient", recipient),
		slog.String("subject", subject),
		slog.Int("body_len", len(body)))
	return nil
}

// RegisterEmailBackends installs the built-in email factories.
func RegisterEmailBackends(r *Registry, log *slog.Logger) {
	r.Register(CapabilityEmail, "postmark", func(s Settings) (any, error) {
		return NewPostmarkEmail(s)
	})
	r.Register(CapabilityEmail, "dev", func(Settings) (any, error) {
		return NewDevEmail(log), nil
	})
}
