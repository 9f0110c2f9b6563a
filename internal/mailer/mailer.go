// Package mailer delivers notification emails over SMTP or, in
// development, only to the log.
package mailer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Dialer sends fully built messages.  *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends messages through an SMTP relay.
type SMTPNotifier struct {
	dialer Dialer
	from   string
}

// NewSMTPNotifier builds a notifier for the relay described by cfg.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.From,
	}
}

// NewNotifierWithDialer is NewSMTPNotifier with an explicit transport.
func NewNotifierWithDialer(d Dialer, from string) *SMTPNotifier {
	return &SMTPNotifier{dialer: d, from: from}
}

// Send delivers msg.  gomail has no context support, so ctx is only
// checked before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("send %q: empty recipient", msg.Subject)
	}
	if err := n.dialer.DialAndSend(Build(n.from, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	logger.WithContext(ctx).Info("email sent", "to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

// Build converts msg into a gomail message with an HTML body.
func Build(from string, msg model.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	for _, a := range msg.Attachments {
		content := a.Content
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}
	return m
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg model.Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	logger.WithContext(ctx).Info("email suppressed", "to", msg.To, "subject", msg.Subject, "attachments", names)
	return nil
}
