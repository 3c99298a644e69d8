// Package mail delivers notification messages over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/config"
	"github.com/couchcryptid/stargazer-events/internal/domain"
	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer implements domain.Mailer. A connection is dialed per message;
// notification volume is low and the relay may close idle connections.
type SMTPMailer struct {
	from    string
	options []gomail.Option
	host    string
	logger  *slog.Logger
}

// NewSMTPMailer builds a mailer for the configured relay.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTimeout(cfg.MailTimeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	return &SMTPMailer{from: cfg.MailFrom, options: opts, host: cfg.SMTPHost, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, msg domain.Mail) error {
	out, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(m.host, m.options...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return classify(err)
	}
	m.logger.Debug("mail sent", "to", msg.To)
	return nil
}

func buildMessage(from string, msg domain.Mail) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return out, nil
}

// classify marks connection failures and 4xx replies as transient.
func classify(err error) error {
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) && sendErr.IsTemp() {
		return fmt.Errorf("smtp send: %w: %w", domain.ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("smtp send: %w: %w", domain.ErrTransient, err)
	}
	return fmt.Errorf("smtp send: %w", err)
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger, now: time.Now}
}

func (m *LogMailer) Send(_ context.Context, msg domain.Mail) error {
	m.logger.Info("mail not sent, no smtp relay configured",
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.Body),
		"at", m.now().UTC(),
	)
	return nil
}
