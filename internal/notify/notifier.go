// Package notify delivers user-facing messages such as OTP codes.
//
// Delivery is best effort. The SMTP notifier falls back to writing the message
// to the structured log when sending fails or SMTP is not configured, so an
// unreachable mail server never aborts the operation that triggered the
// message.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Message is a plain-text notification for one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Sender is the subset of *gomail.Dialer used for delivery.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends messages through an SMTP server.
type SMTPNotifier struct {
	sender Sender
	from   string
}

// NewSMTPNotifier creates an SMTPNotifier dialing cfg.Host for every message.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Notify sends msg as a text/plain email.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs msg. It never fails.
func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification not delivered by email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// FallbackNotifier tries primary and, on failure, hands the message to fallback.
type FallbackNotifier struct {
	primary  Notifier
	fallback Notifier
	logger   *slog.Logger
}

// NewFallbackNotifier creates a FallbackNotifier.
func NewFallbackNotifier(primary, fallback Notifier, logger *slog.Logger) *FallbackNotifier {
	return &FallbackNotifier{primary: primary, fallback: fallback, logger: logger}
}

// Notify delivers msg through primary or fallback.
func (n *FallbackNotifier) Notify(ctx context.Context, msg Message) error {
	err := n.primary.Notify(ctx, msg)
	if err == nil {
		return nil
	}
	n.logger.WarnContext(ctx, "primary notifier failed, using fallback",
		slog.String("to", msg.To),
		slog.Any("error", err),
	)
	return n.fallback.Notify(ctx, msg)
}

// New builds the notifier for cfg: SMTP with log fallback when a host is set,
// log only otherwise.
func New(cfg SMTPConfig, logger *slog.Logger) Notifier {
	logNotifier := NewLogNotifier(logger)
	if cfg.Host == "" {
		return logNotifier
	}
	return NewFallbackNotifier(NewSMTPNotifier(cfg), logNotifier, logger)
}
