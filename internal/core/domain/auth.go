package domain

import (
	"strings"
	"time"
)

// User identifies the account behind a session.
type User struct {
	// ID is the server-assigned account identifier.
	ID string `json:"id"`
	// DisplayName is the name shown to the user.
	DisplayName string `json:"display_name"`
}

// Session represents an authenticated session against the remote API.
// It lives for the duration of the process and is never persisted.
type Session struct {
	// Token is the bearer token. Empty means unauthenticated.
	Token string `json:"-"`
	// User is the account the token belongs to.
	User User `json:"user"`
	// ExpiresKnown reports whether the token carried an expiry.
	ExpiresKnown bool `json:"expires_known"`
	// ExpiresAt is the token expiry; only meaningful when ExpiresKnown is set.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsAuthenticated returns true if the session holds a token that has not
// passed a known expiry.
func (s *Session) IsAuthenticated() bool {
	if s == nil || s.Token == "" {
		return false
	}
	return !s.IsExpired()
}

// IsExpired returns true if the token has a known expiry in the past.
func (s *Session) IsExpired() bool {
	if s == nil || !s.ExpiresKnown {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// Credentials returns the per-operation credential snapshot for this session.
func (s *Session) Credentials() Credentials {
	if !s.IsAuthenticated() {
		return Credentials{}
	}
	return Credentials{Token: s.Token}
}

// Credentials is a snapshot of the authentication material for a single
// operation. Adapters must not retain it beyond that operation.
type Credentials struct {
	// Token is the bearer token. Empty means no Authorization header.
	Token string
}

// IsZero returns true if no token is present.
func (c Credentials) IsZero() bool {
	return c.Token == ""
}

// RegistrationProfile holds the fields submitted when creating an account.
type RegistrationProfile struct {
	Username    string
	Password    string
	FullName    string
	Email       string
	Company     string
	Designation string
}

// MinPasswordLength is the shortest password accepted locally at registration.
const MinPasswordLength = 8

// Validate checks the profile fields locally before any network call.
// It returns a *ValidationError listing every problem found, or nil.
func (p RegistrationProfile) Validate() error {
	var fields []FieldError

	if strings.TrimSpace(p.Username) == "" {
		fields = append(fields, FieldError{Field: "username", Message: "username is required"})
	}
	switch {
	case p.Password == "":
		fields = append(fields, FieldError{Field: "password", Message: "password is required"})
	case len(p.Password) < MinPasswordLength:
		fields = append(fields, FieldError{
			Field:   "password",
			Message: "password must be at least 8 characters",
		})
	}
	if strings.TrimSpace(p.FullName) == "" {
		fields = append(fields, FieldError{Field: "full_name", Message: "full name is required"})
	}
	if !looksLikeEmail(p.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "a valid email address is required"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func looksLikeEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".") && !strings.ContainsAny(s, " \t")
}
