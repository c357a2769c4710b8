package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driving"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionManager = (*SessionManager)(nil)

// SessionManager owns authentication state and the token lifecycle.
type SessionManager struct {
	api driven.AuthAPI

	mu      sync.RWMutex
	session *domain.Session
}

// NewSessionManager creates an unauthenticated session manager.
func NewSessionManager(api driven.AuthAPI) *SessionManager {
	return &SessionManager{api: api}
}

// Login authenticates and stores the token and user.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &domain.AuthError{
			Kind:    domain.AuthInvalidCredentials,
			Message: "username and password are required",
		}
	}

	result, err := m.api.Login(ctx, username, password)
	if err != nil {
		logger.Debug("login failed for %s: %v", username, err)
		return nil, loginError(err)
	}
	if result.AccessToken == "" {
		return nil, &domain.AuthError{
			Kind:    domain.AuthInvalidCredentials,
			Message: "server returned no access token",
			Err:     domain.ErrUnexpectedResponse,
		}
	}

	session := &domain.Session{
		Token:        result.AccessToken,
		User:         result.User,
		ExpiresKnown: !result.ExpiresAt.IsZero(),
		ExpiresAt:    result.ExpiresAt,
	}
	if session.User.DisplayName == "" {
		session.User.DisplayName = username
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	logger.Event("logged in", "user_id", session.User.ID, "expires_known", session.ExpiresKnown)

	out := *session
	return &out, nil
}

// loginError maps an adapter error to the login error taxonomy.
func loginError(err error) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusForbidden:
			return &domain.AuthError{Kind: domain.AuthAccessDenied, Message: apiErr.Detail, Err: err}
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return &domain.AuthError{Kind: domain.AuthConnectionError, Message: apiErr.Detail, Err: err}
		default:
			return &domain.AuthError{Kind: domain.AuthInvalidCredentials, Message: apiErr.Detail, Err: err}
		}
	}
	if errors.Is(err, domain.ErrConnection) {
		return &domain.AuthError{Kind: domain.AuthConnectionError, Err: err}
	}
	return &domain.AuthError{Kind: domain.AuthInvalidCredentials, Message: err.Error(), Err: err}
}

// Register creates an account server-side. It does not log in.
func (m *SessionManager) Register(ctx context.Context, profile domain.RegistrationProfile) error {
	profile.Username = strings.TrimSpace(profile.Username)
	profile.Email = strings.TrimSpace(profile.Email)
	if err := profile.Validate(); err != nil {
		return err
	}

	err := m.api.Register(ctx, profile)
	if err == nil {
		logger.Event("registered account", "username", profile.Username)
		return nil
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			return &domain.ValidationError{Fields: apiErr.Fields}
		}
		return &domain.ValidationError{Fields: []domain.FieldError{{Message: apiErr.Detail}}}
	}
	return err
}

// Verify checks the current token. Any false result clears the session
// before returning.
func (m *SessionManager) Verify(ctx context.Context) bool {
	creds := m.Credentials()
	if creds.IsZero() {
		m.Invalidate()
		return false
	}

	result, err := m.api.Verify(ctx, creds)
	if err != nil || !result.Authenticated {
		if err != nil {
			logger.Debug("verify failed: %v", err)
		}
		m.Invalidate()
		return false
	}

	if result.User != nil {
		m.mu.Lock()
		if m.session != nil && m.session.Token == creds.Token {
			m.session.User = *result.User
		}
		m.mu.Unlock()
	}
	return true
}

// Logout notifies the server on a best-effort basis and clears the session.
func (m *SessionManager) Logout(ctx context.Context) {
	creds := m.Credentials()
	if !creds.IsZero() {
		if err := m.api.Logout(ctx, creds); err != nil {
			logger.Debug("server logout failed (session cleared anyway): %v", err)
		}
	}
	m.Invalidate()
}

// Invalidate clears the session without contacting the server.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		logger.Debug("session cleared")
	}
	m.session = nil
}

// Credentials returns a snapshot for a single operation.
func (m *SessionManager) Credentials() domain.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Credentials()
}

// Current returns a copy of the session, if authenticated.
func (m *SessionManager) Current() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.session.IsAuthenticated() {
		return domain.Session{}, false
	}
	return *m.session, true
}

// IsAuthenticated reports whether a usable token is held.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IsAuthenticated()
}

// handleRejection clears the session when err says the server no longer
// accepts the token. Shared by every service that makes authenticated calls.
func handleRejection(sessions driving.SessionManager, err error) {
	if sessions != nil && domain.IsUnauthorized(err) {
		logger.Warn("server rejected credentials, logging out")
		sessions.Invalidate()
	}
}
