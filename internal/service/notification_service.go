package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/notify"
	"github.com/phrazzld/faros-api/internal/platform/email"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/store"
)

// NotificationService manages notification preferences and email
// verification.
type NotificationService struct {
	deps   Deps
	sender email.Sender
	logger *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(deps Deps, sender email.Sender) *NotificationService {
	return &NotificationService{
		deps:   deps,
		sender: sender,
		logger: deps.logger("notification_service"),
	}
}

// getOrCreate returns the stored preferences, creating the defaults when
// none exist yet.
func (s *NotificationService) getOrCreate(
	ctx context.Context,
	prefs store.PreferenceStore,
	users store.UserStore,
	userID int64,
) (*domain.NotificationPreference, error) {
	pref, err := prefs.Get(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, err
	}

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref = domain.DefaultNotificationPreference(userID)
	pref.EmailVerified = user.EmailVerified
	pref.CreatedAt = s.deps.now()
	if err := prefs.Create(ctx, pref); err != nil {
		if store.IsDuplicateError(err) {
			return prefs.Get(ctx, userID)
		}
		return nil, err
	}
	return pref, nil
}

// Preferences returns the actor's preferences, creating defaults on first
// read.
func (s *NotificationService) Preferences(ctx context.Context, actor Actor) (*domain.NotificationPreference, error) {
	pref, err := s.getOrCreate(ctx, s.deps.Preferences, s.deps.Users, actor.ID)
	if err != nil {
		return nil, NewServiceError("notification", "get_preferences", "failed to load preferences", err)
	}
	return pref, nil
}

// UpdatePreferences applies patch to the actor's preferences.
func (s *NotificationService) UpdatePreferences(
	ctx context.Context,
	actor Actor,
	patch domain.PreferencePatch,
) (*domain.NotificationPreference, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	pref, err := s.Preferences(ctx, actor)
	if err != nil {
		return nil, err
	}
	pref.Apply(patch)
	if err := s.deps.Preferences.Update(ctx, pref); err != nil {
		return nil, NewServiceError("notification", "update_preferences", "failed to save preferences", err)
	}
	return pref, nil
}

// SendVerificationCode emails a fresh six-digit code to the actor.
func (s *NotificationService) SendVerificationCode(ctx context.Context, actor Actor) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.deps.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	code, err := randomDigits(6)
	if err != nil {
		return NewServiceError("notification", "send_verification", "failed to generate code", err)
	}
	expires := s.deps.now().Add(VerificationCodeLifetime)
	user.VerificationCode = &code
	user.VerificationExpires = &expires
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return NewServiceError("notification", "send_verification", "failed to store code", err)
	}

	sent, err := s.sender.Send(ctx, notify.VerificationCodeMessage(user.Email, user.Username, code))
	switch {
	case err != nil:
		log.Error("failed to send verification code", slog.String("error", err.Error()))
	case !sent:
		log.Warn("verification code not sent")
	}
	return nil
}

// VerifyEmail marks the actor's email verified when code matches.
func (s *NotificationService) VerifyEmail(ctx context.Context, actor Actor, code string) error {
	user, err := s.deps.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !user.VerificationCodeValid(strings.TrimSpace(code), s.deps.now()) {
		return ErrInvalidVerificationCode
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		users := s.deps.Users.WithTx(tx)
		prefs := s.deps.Preferences.WithTx(tx)

		user.EmailVerified = true
		user.VerificationCode = nil
		user.VerificationExpires = nil
		if err := users.Update(ctx, user); err != nil {
			return err
		}

		pref, err := s.getOrCreate(ctx, prefs, users, user.ID)
		if err != nil {
			return err
		}
		pref.EmailVerified = true
		now := s.deps.now()
		pref.UpdatedAt = &now
		return prefs.Update(ctx, pref)
	})
	if err != nil {
		return NewServiceError("notification", "verify_email", "failed to verify email", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("email verified", slog.Int64("user_id", actor.ID))
	return nil
}
