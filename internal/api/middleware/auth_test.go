package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/mocks"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

const testCookie = "faros_session"

// echoUser writes the authenticated user as "id:username".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, username, ok := shared.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = fmt.Fprintf(w, "%d:%s", id, username)
})

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestAuthenticate(t *testing.T) {
	alice := &domain.User{ID: 7, Username: "alice"}

	tests := []struct {
		name        string
		prepare     func(r *http.Request)
		claims      *auth.Claims
		validateErr error
		lookupErr   error
		wantStatus  int
		wantMessage string
		wantBody    string
	}{
		{
			name:        "no credentials",
			prepare:     func(*http.Request) {},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authenticated",
		},
		{
			name:        "non-bearer scheme",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Basic YWxpY2U6cHc=") },
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authenticated",
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			claims:     &auth.Claims{Subject: "alice"},
			wantStatus: http.StatusOK,
			wantBody:   "7:alice",
		},
		{
			name:       "lowercase scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "bearer good") },
			claims:     &auth.Claims{Subject: "alice"},
			wantStatus: http.StatusOK,
			wantBody:   "7:alice",
		},
		{
			name:       "session cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: testCookie, Value: "good"}) },
			claims:     &auth.Claims{Subject: "alice"},
			wantStatus: http.StatusOK,
			wantBody:   "7:alice",
		},
		{
			name:        "expired token",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer old") },
			validateErr: fmt.Errorf("validate: %w", auth.ErrExpiredToken),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "missing subject",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer nosub") },
			validateErr: auth.ErrMissingSubject,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token payload",
		},
		{
			name:        "empty subject in claims",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer empty") },
			claims:      &auth.Claims{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token payload",
		},
		{
			name:        "unexpected validation failure",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer x") },
			validateErr: errors.New("keyring unavailable"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication error",
		},
		{
			name:        "deleted user",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			claims:      &auth.Claims{Subject: "alice"},
			lookupErr:   store.ErrUserNotFound,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "User not found",
		},
		{
			name:        "user store failure",
			prepare:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			claims:      &auth.Claims{Subject: "alice"},
			lookupErr:   errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jwtService := &mocks.MockJWTService{Claims: tc.claims, ValidateErr: tc.validateErr}
			users := &mocks.TestifyMockUserStore{}
			if tc.lookupErr != nil {
				users.On("GetByUsername", mock.Anything, "alice").Return(nil, tc.lookupErr)
			} else {
				users.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			}

			handler := NewAuthMiddleware(jwtService, users, testCookie).Authenticate(echoUser)
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			tc.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, errorBody(t, rec))
			}
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_HeaderWinsOverCookie(t *testing.T) {
	var seen string
	jwtService := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			seen = token
			return &auth.Claims{Subject: "alice"}, nil
		},
	}
	users := &mocks.TestifyMockUserStore{}
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{ID: 1, Username: "alice"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "from-cookie"})
	rec := httptest.NewRecorder()
	NewAuthMiddleware(jwtService, users, testCookie).Authenticate(echoUser).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-header", seen)
	users.AssertExpectations(t)
}
