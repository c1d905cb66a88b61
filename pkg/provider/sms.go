package provider

import (
	"context"
	"log/slog"
)

// DevSMS writes outgoing messages to the log instead of delivering
// them. The only built-in SMS backend; production gateways register
// their own factory.
type DevSMS struct {
	log *slog.Logger
}

// NewDevSMS builds the log-only SMS backend.
func NewDevSMS(log *slog.Logger) *DevSMS {
	if log == nil {
		log = slog.Default()
	}
	return &DevSMS{log: log}
}

func (d *DevSMS) SendSMS(ctx context.Context, recipient, message string) error {
	d.log.InfoContext(ctx, "dev sms",
		slog.String("recipient", recipient),
		slog.Int("message_len", len(message)))
	return nil
}

// RegisterSMSBackends installs the built-in SMS factories.
func RegisterSMSBackends(r *Registry, log *slog.Logger) {
	r.Register(CapabilitySMS, "dev", func(Settings) (any, error) {
		return NewDevSMS(log), nil
	})
}
