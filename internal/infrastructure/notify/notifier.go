// Package notify delivers emails and text messages.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// EmailSender sends one email.
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, body string) error
}

// SMSSender sends one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, number, body string) error
}

// Router implements ports.Notifier over one sender per channel. A channel
// without a configured sender falls back to the log.
type Router struct {
	email EmailSender
	sms   SMSSender
}

func NewRouter(email EmailSender, sms SMSSender, log zerolog.Logger) *Router {
	fallback := NewLogNotifier(log)
	if email == nil {
		email = fallback
	}
	if sms == nil {
		sms = fallback
	}
	return &Router{email: email, sms: sms}
}

func (r *Router) SendEmail(ctx context.Context, address, subject, body string) error {
	return r.email.SendEmail(ctx, address, subject, body)
}

func (r *Router) SendSMS(ctx context.Context, number, body string) error {
	return r.sms.SendSMS(ctx, number, body)
}

// LogNotifier writes notifications to the log instead of sending them.
// Used in development and when a transport is not configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) SendEmail(_ context.Context, address, subject, body string) error {
	n.log.Info().Str("channel", "email").Str("to", address).Str("subject", subject).Str("body", body).Msg("notification not sent, no email transport")
	return nil
}

func (n *LogNotifier) SendSMS(_ context.Context, number, body string) error {
	n.log.Info().Str("channel", "sms").Str("to", number).Str("body", body).Msg("notification not sent, no sms transport")
	return nil
}
