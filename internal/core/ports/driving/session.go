package driving

import (
	"context"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
)

// SessionManager owns the authenticated session for one user.
// It is the only writer of session state.
type SessionManager interface {
	// Login authenticates and stores the session.
	// Failures are *domain.AuthError.
	Login(ctx context.Context, username, password string) (*domain.Session, error)

	// Register creates an account without logging in.
	// Field problems are *domain.ValidationError.
	Register(ctx context.Context, profile domain.RegistrationProfile) error

	// Verify checks the token with the server. Whenever it returns false the
	// session has been cleared.
	Verify(ctx context.Context) bool

	// Logout clears the session unconditionally. Safe to call repeatedly.
	Logout(ctx context.Context)

	// Invalidate clears the session without contacting the server.
	// Used after the server rejects the token.
	Invalidate()

	// Credentials returns a snapshot for a single operation.
	Credentials() domain.Credentials

	// Current returns a copy of the session, if authenticated.
	Current() (domain.Session, bool)

	// IsAuthenticated reports whether a usable token is held.
	IsAuthenticated() bool
}
