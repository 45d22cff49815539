// Package email sends outbound notification mail.
//
// New builds the configured Sender: an SMTP sender (gomail) wrapped in a
// circuit breaker, or a LogSender that only logs a summary. Send reports
// false with a nil error when a message was intentionally not delivered.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"
)

// ErrEmptyRecipient is returned when Send is called without an address.
var ErrEmptyRecipient = errors.New("email recipient is empty")

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (bool, error)
}

// New returns the Sender selected by cfg.Provider.
func New(cfg config.EmailConfig, log *slog.Logger) Sender {
	if cfg.Provider == "smtp" {
		smtp := NewSMTPSender(cfg, log)
		return NewBreakerSender(smtp, cfg.BreakerMaxFailures, time.Duration(cfg.BreakerTimeoutSeconds)*time.Second, log)
	}
	return NewLogSender(log)
}

// dialer is the subset of gomail.Dialer used by SMTPSender.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// DefaultSendTimeout bounds one SMTP conversation. gomail only applies a
// timeout to the dial, so a stalled relay is cut off here.
const DefaultSendTimeout = 30 * time.Second

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	from    string
	dialer  dialer
	timeout time.Duration
	logger  *slog.Logger
}

// NewSMTPSender creates a sender for the relay described by cfg.
func NewSMTPSender(cfg config.EmailConfig, log *slog.Logger) *SMTPSender {
	if log == nil {
		log = slog.Default()
	}
	return &SMTPSender{
		from:    cfg.From,
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		timeout: DefaultSendTimeout,
		logger:  log.With(slog.String("component", "smtp_sender")),
	}
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (bool, error) {
	if strings.TrimSpace(msg.To) == "" {
		return false, ErrEmptyRecipient
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// DialAndSend ignores ctx; the buffered channel lets an abandoned send
	// finish without blocking forever.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return false, fmt.Errorf("send email: %w", err)
		}
	case <-ctx.Done():
		return false, fmt.Errorf("send email: %w", ctx.Err())
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("email sent", slog.String("subject", msg.Subject))
	return true, nil
}

// BreakerSender stops calling the wrapped sender after repeated failures.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSender wraps next. The breaker opens after maxFailures
// consecutive failures and half-opens again after timeout.
func NewBreakerSender(next Sender, maxFailures uint32, timeout time.Duration, log *slog.Logger) *BreakerSender {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "email_breaker"))
	return &BreakerSender{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "email",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Send implements Sender. When the breaker is open the message is dropped
// and gobreaker.ErrOpenState is returned.
func (b *BreakerSender) Send(ctx context.Context, msg Message) (bool, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Send(ctx, msg)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// State reports the breaker state.
func (b *BreakerSender) State() gobreaker.State {
	return b.breaker.State()
}

// LogSender writes a summary of each message to the log instead of
// delivering it. Bodies are never logged since they carry reset links and
// verification codes.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log.With(slog.String("component", "log_sender"))}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) (bool, error) {
	if strings.TrimSpace(msg.To) == "" {
		return false, ErrEmptyRecipient
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("email not delivered, log provider active",
		slog.String("subject", msg.Subject),
		slog.Int("text_length", len(msg.Text)))
	return true, nil
}
