package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/email"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/store"
)

// UserLookup resolves a recipient's address.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// PreferenceLookup reads a recipient's notification switches.
type PreferenceLookup interface {
	Get(ctx context.Context, userID int64) (*domain.NotificationPreference, error)
}

// Dispatcher turns notification events into emails.
type Dispatcher struct {
	users   UserLookup
	prefs   PreferenceLookup
	sender  email.Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ events.EventHandler = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(
	users UserLookup,
	prefs PreferenceLookup,
	sender email.Sender,
	m *metrics.Metrics,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		users:   users,
		prefs:   prefs,
		sender:  sender,
		metrics: m,
		logger:  log.With(slog.String("component", "notification_dispatcher")),
	}
}

// Accepts reports whether eventType produces a notification.
func (d *Dispatcher) Accepts(eventType string) bool {
	_, ok := KindForEvent(eventType)
	return ok
}

// HandleEvent implements events.EventHandler. Events that are not
// notifications are ignored. It never returns an error: every failure is
// logged and counted.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *events.Event) error {
	kind, ok := KindForEvent(event.Type)
	if !ok {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("kind", kind.String()),
		slog.String("event_id", event.ID.String()),
	)

	var payload events.NotificationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to decode notification payload", slog.String("error", err.Error()))
		d.count(kind, metrics.OutcomeFailed)
		return nil
	}

	outcome, err := d.dispatch(ctx, kind, payload)
	d.count(kind, outcome)
	switch {
	case err != nil:
		log.Error("failed to send notification",
			slog.String("error", err.Error()),
			slog.Int64("recipient_id", payload.RecipientID),
			slog.Int64("task_id", payload.TaskID))
	case outcome == metrics.OutcomeSent:
		log.Info("notification sent",
			slog.Int64("recipient_id", payload.RecipientID),
			slog.Int64("task_id", payload.TaskID))
	}
	return nil
}

// dispatch returns the metric outcome of one notification.
func (d *Dispatcher) dispatch(ctx context.Context, kind Kind, p events.NotificationPayload) (string, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	if p.RecipientID == 0 {
		return metrics.OutcomeSkipped, nil
	}
	if kind.SkipSelf() && p.RecipientID == p.ActorID {
		log.Debug("skipping self notification", slog.String("kind", kind.String()))
		return metrics.OutcomeSkipped, nil
	}

	pref, err := d.prefs.Get(ctx, p.RecipientID)
	if err != nil {
		if !errors.Is(err, store.ErrPreferenceNotFound) {
			return metrics.OutcomeFailed, fmt.Errorf("failed to load preferences: %w", err)
		}
		pref = domain.DefaultNotificationPreference(p.RecipientID)
	}

	if reason := Decide(pref, kind); reason != SkipNone {
		log.Debug("notification suppressed",
			slog.String("kind", kind.String()),
			slog.String("reason", string(reason)),
			slog.Int64("recipient_id", p.RecipientID))
		return metrics.OutcomeSkipped, nil
	}

	recipient, err := d.users.GetByID(ctx, p.RecipientID)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("failed to load recipient: %w", err)
	}

	msg, err := Render(kind, recipient.Email, p)
	if err != nil {
		return metrics.OutcomeFailed, err
	}

	sent, err := d.sender.Send(ctx, msg)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if !sent {
		return metrics.OutcomeFailed, errors.New("sender reported the message as not sent")
	}
	return metrics.OutcomeSent, nil
}

func (d *Dispatcher) count(kind Kind, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.Notifications.WithLabelValues(kind.String(), outcome).Inc()
}
