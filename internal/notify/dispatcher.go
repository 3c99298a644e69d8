// Package notify delivers event digests over email and carrier SMS
// gateways and runs the notification pass across users.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/observability"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"

	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Result reports what one dispatch attempted. Channel fields are omitted
// when the channel was not attempted.
type Result struct {
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	EmailSent *bool  `json:"emailSent,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TextSent  *bool  `json:"textSent,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher sends composed digests through a Mailer.
type Dispatcher struct {
	mailer   domain.Mailer
	logger   *slog.Logger
	metrics  *observability.Metrics
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// NewDispatcher creates a dispatcher. Each send is bounded by timeout and
// tried up to attempts times when the failure is transient.
func NewDispatcher(mailer domain.Mailer, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration, attempts int) *Dispatcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Dispatcher{
		mailer:   mailer,
		logger:   logger,
		metrics:  metrics,
		timeout:  timeout,
		attempts: attempts,
		backoff:  initialBackoff,
	}
}

// Dispatch sends one candidate's digest on each enabled channel. The sent
// flags reflect the transport outcome; a failed channel does not fail the
// dispatch. SMS is skipped without error when the carrier is unknown.
func (d *Dispatcher) Dispatch(ctx context.Context, c domain.Candidate) (Result, error) {
	res := Result{UserID: c.UserID, Name: c.Name}
	if c.Settings == nil {
		return res, fmt.Errorf("dispatch to %s: %w", c.UserID, domain.ErrSettingsIncomplete)
	}
	if len(c.Events) == 0 {
		res.Message = domain.NoUpcomingEventsMessage
		return res, nil
	}
	s := c.Settings

	body := domain.ComposeMessage(c.Name, c.Events)

	if s.NotifyEmail {
		res.Email = s.Email
		sent := d.deliver(ctx, channelEmail, c.UserID, domain.Mail{To: s.Email, Subject: domain.NotificationSubject, Body: body})
		res.EmailSent = &sent
	}

	if s.NotifyPhone {
		addr, err := domain.SMSGatewayAddress(s.Phone, s.PhoneProvider)
		if err != nil {
			d.metrics.Notifications.WithLabelValues(channelSMS, "skipped").Inc()
			d.logger.Debug("sms skipped", "user_id", c.UserID, "reason", err)
		} else {
			res.Phone = addr
			sent := d.deliver(ctx, channelSMS, c.UserID, domain.Mail{To: addr, Subject: domain.NotificationSubject, Body: body})
			res.TextSent = &sent
		}
	}
	return res, nil
}

// NotifyAll dispatches to every candidate concurrently and waits for all of
// them. A failing user becomes an entry with Error set; results keep input
// order.
func (d *Dispatcher) NotifyAll(ctx context.Context, candidates []domain.Candidate) []Result {
	results := make([]Result, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Dispatch(ctx, c)
			if err != nil {
				d.logger.Warn("dispatch failed", "user_id", c.UserID, "error", err)
				res = Result{UserID: c.UserID, Name: c.Name, Error: err.Error()}
			}
			results[i] = res
		}()
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, channel, userID string, m domain.Mail) bool {
	if err := d.send(ctx, m); err != nil {
		d.metrics.Notifications.WithLabelValues(channel, "failed").Inc()
		d.logger.Error("notification send failed", "channel", channel, "user_id", userID, "error", err)
		return false
	}
	d.metrics.Notifications.WithLabelValues(channel, "sent").Inc()
	return true
}

// send tries the transport until it succeeds, the error is permanent, or
// the attempts run out.
func (d *Dispatcher) send(ctx context.Context, m domain.Mail) error {
	backoff := d.backoff
	var err error
	for attempt := 1; ; attempt++ {
		err = d.sendOnce(ctx, m)
		if err == nil || !retryable(err) || attempt >= d.attempts {
			return err
		}
		if !sleepWithContext(ctx, backoff) {
			return err
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (d *Dispatcher) sendOnce(ctx context.Context, m domain.Mail) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.mailer.Send(ctx, m)
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
