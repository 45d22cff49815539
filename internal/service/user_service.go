package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/notify"
	"github.com/phrazzld/faros-api/internal/platform/email"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

// Credential lifetimes and search bounds.
const (
	ResetTokenLifetime       = time.Hour
	VerificationCodeLifetime = 15 * time.Minute
	DefaultSearchLimit       = 10
	MaxSearchLimit           = 50
)

// UserService handles registration, login and credential management.
type UserService struct {
	deps        Deps
	jwt         auth.JWTService
	hasher      auth.PasswordHasher
	sender      email.Sender
	frontendURL string
	logger      *slog.Logger
}

// NewUserService creates a UserService. Password reset links point at
// frontendURL.
func NewUserService(
	deps Deps,
	jwt auth.JWTService,
	hasher auth.PasswordHasher,
	sender email.Sender,
	frontendURL string,
) *UserService {
	return &UserService{
		deps:        deps,
		jwt:         jwt,
		hasher:      hasher,
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      deps.logger("user_service"),
	}
}

// Register creates an account and its default notification preferences.
func (s *UserService) Register(ctx context.Context, username, emailAddr, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, emailAddr, password)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = s.deps.now()
	user.HashedPassword, err = s.hasher.Hash(password)
	if err != nil {
		return nil, NewServiceError("user", "register", "failed to hash password", err)
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		pref := domain.DefaultNotificationPreference(user.ID)
		pref.CreatedAt = user.CreatedAt
		return s.deps.Preferences.WithTx(tx).Create(ctx, pref)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("registration conflict", slog.String("error", err.Error()))
			return nil, err
		}
		log.Error("failed to register user", slog.String("error", err.Error()))
		return nil, NewServiceError("user", "register", "failed to create user", err)
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.deps.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, NewServiceError("user", "login", "failed to load user", err)
	}
	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login rejected", slog.Int64("user_id", user.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(ctx, user.Username)
	if err != nil {
		return "", nil, NewServiceError("user", "login", "failed to issue token", err)
	}
	return token, user, nil
}

// TokenLifetime returns how long issued session tokens stay valid.
func (s *UserService) TokenLifetime() time.Duration {
	return s.jwt.TokenLifetime()
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.deps.Users.GetByID(ctx, id)
}

// GetByUsername returns a user by exact username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.deps.Users.GetByUsername(ctx, username)
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	user, err := s.deps.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.HashedPassword, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}
	user.HashedPassword, err = s.hasher.Hash(next)
	if err != nil {
		return NewServiceError("user", "change_password", "failed to hash password", err)
	}
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return NewServiceError("user", "change_password", "failed to save password", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("password changed", slog.Int64("user_id", actor.ID))
	return nil
}

// Search finds other users whose username contains query.
func (s *UserService) Search(ctx context.Context, actor Actor, query string, limit int) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "must not be empty", nil)
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, ErrInvalidPagination
	}
	users, err := s.deps.Users.Search(ctx, query, actor.ID, limit)
	if err != nil {
		return nil, NewServiceError("user", "search", "failed to search users", err)
	}
	return users, nil
}

// RequestPasswordReset emails a reset link when emailAddr belongs to an
// account. Unknown addresses succeed silently.
func (s *UserService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.deps.Users.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return NewServiceError("user", "reset_request", "failed to load user", err)
	}

	token, err := randomHex(32)
	if err != nil {
		return NewServiceError("user", "reset_request", "failed to generate token", err)
	}
	expires := s.deps.now().Add(ResetTokenLifetime)
	user.PasswordResetToken = &token
	user.PasswordResetExpires = &expires
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return NewServiceError("user", "reset_request", "failed to store token", err)
	}

	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	s.send(ctx, notify.PasswordResetMessage(user.Email, user.Username, link), "password_reset")
	return nil
}

// ResetPassword sets a new password using a pending reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, next string) error {
	user, err := s.deps.Users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return NewServiceError("user", "reset_password", "failed to load user", err)
	}
	if !user.ResetTokenValid(s.deps.now()) {
		return ErrInvalidResetToken
	}
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	user.HashedPassword, err = s.hasher.Hash(next)
	if err != nil {
		return NewServiceError("user", "reset_password", "failed to hash password", err)
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return NewServiceError("user", "reset_password", "failed to save password", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("password reset", slog.Int64("user_id", user.ID))
	return nil
}

// send delivers a transactional email. Failures are logged only.
func (s *UserService) send(ctx context.Context, msg email.Message, kind string) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	sent, err := s.sender.Send(ctx, msg)
	switch {
	case err != nil:
		log.Error("failed to send email", slog.String("kind", kind), slog.String("error", err.Error()))
	case !sent:
		log.Warn("email not sent", slog.String("kind", kind))
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func randomDigits(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
