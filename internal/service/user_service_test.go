package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/store"
)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Register(ctx, "  alice ", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "hashed:password123", user.HashedPassword)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, fixedNow, user.CreatedAt)

	pref, err := env.db.Preferences().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, withoutTimes(*domain.DefaultNotificationPreference(user.ID)), withoutTimes(*pref))

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{name: "duplicate username", username: "ALICE", email: "other@example.com", password: "password123", wantErr: store.ErrUsernameExists},
		{name: "duplicate email", username: "alice2", email: "alice@example.com", password: "password123", wantErr: store.ErrEmailExists},
		{name: "short password", username: "bob", email: "bob@example.com", password: "short", wantErr: domain.ErrPasswordTooShort},
		{name: "bad email", username: "bob", email: "bob-at-example", password: "password123", wantErr: domain.ErrInvalidEmail},
		{name: "bad username", username: "b!", email: "bob@example.com", password: "password123", wantErr: domain.ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func withoutTimes(p domain.NotificationPreference) domain.NotificationPreference {
	p.CreatedAt = time.Time{}
	p.UpdatedAt = nil
	return p
}

func TestUserService_RegisterRollsBackOnPreferenceFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.db.FailOn("preferences.Create", errors.New("insert failed"))

	_, err := env.users.Register(ctx, "alice", "alice@example.com", "password123")
	require.Error(t, err)

	_, err = env.db.Users().GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	token, user, err := env.users.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, alice.ID, user.ID)

	_, _, err = env.users.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = env.users.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	assert.Equal(t, time.Hour, env.users.TokenLifetime())
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	err := env.users.ChangePassword(ctx, alice, "wrong-password", "newpassword1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	err = env.users.ChangePassword(ctx, alice, "password123", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	require.NoError(t, env.users.ChangePassword(ctx, alice, "password123", "newpassword1"))

	_, _, err = env.users.Login(ctx, "alice", "newpassword1")
	assert.NoError(t, err)
	_, _, err = env.users.Login(ctx, "alice", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestUserService_Search(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "alicia")
	env.register(t, "bob")

	users, err := env.users.Search(ctx, alice, "ali", 0)
	require.NoError(t, err)
	require.Len(t, users, 1, "the searcher is excluded")
	assert.Equal(t, "alicia", users[0].Username)

	_, err = env.users.Search(ctx, alice, "   ", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.users.Search(ctx, alice, "a", service.MaxSearchLimit+1)
	assert.ErrorIs(t, err, service.ErrInvalidPagination)
}

func TestUserService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	require.NoError(t, env.users.RequestPasswordReset(ctx, "alice@example.com"))

	sent := env.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)

	idx := strings.Index(sent[0].Text, "http://localhost:3000/reset-password?token=")
	require.GreaterOrEqual(t, idx, 0, "reset link in body: %s", sent[0].Text)
	link := strings.Fields(sent[0].Text[idx:])[0]
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	assert.Len(t, token, 64)

	err = env.users.ResetPassword(ctx, "not-the-token", "brandnew123")
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)

	err = env.users.ResetPassword(ctx, token, "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	require.NoError(t, env.users.ResetPassword(ctx, token, "brandnew123"))
	_, _, err = env.users.Login(ctx, "alice", "brandnew123")
	assert.NoError(t, err)

	// Tokens are single use.
	err = env.users.ResetPassword(ctx, token, "another123")
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)
}

func TestUserService_PasswordResetExpired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")
	require.NoError(t, env.users.RequestPasswordReset(ctx, "alice@example.com"))

	user, err := env.db.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user.PasswordResetToken)

	env.now = fixedNow.Add(service.ResetTokenLifetime + time.Minute)
	err = env.users.ResetPassword(ctx, *user.PasswordResetToken, "brandnew123")
	assert.ErrorIs(t, err, service.ErrInvalidResetToken)
}

func TestUserService_PasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.users.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, env.sender.Sent())
}
