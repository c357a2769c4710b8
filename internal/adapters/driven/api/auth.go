package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
)

// Auth endpoints.
const (
	pathLogin    = "/api/auth/login"
	pathRegister = "/api/auth/register"
	pathVerify   = "/api/auth/verify"
	pathLogout   = "/api/auth/logout"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*driven.LoginResult, error) {
	body, err := jsonBody(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	req := request{method: http.MethodPost, path: pathLogin, body: body, contentType: "application/json"}
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response has no access_token", domain.ErrUnexpectedResponse)
	}

	result := &driven.LoginResult{AccessToken: resp.AccessToken}
	if resp.User != nil {
		result.User = resp.User.toDomain()
	}
	switch {
	case resp.ExpiresIn != nil && *resp.ExpiresIn > 0:
		result.ExpiresAt = time.Now().Add(time.Duration(*resp.ExpiresIn) * time.Second)
	default:
		result.ExpiresAt = tokenExpiry(resp.AccessToken)
	}
	return result, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, profile domain.RegistrationProfile) error {
	body, err := jsonBody(registerRequest{
		Username:    profile.Username,
		Password:    profile.Password,
		FullName:    profile.FullName,
		Email:       profile.Email,
		Company:     profile.Company,
		Designation: profile.Designation,
	})
	if err != nil {
		return err
	}
	req := request{method: http.MethodPost, path: pathRegister, body: body, contentType: "application/json"}
	return c.doJSON(ctx, req, nil)
}

// Verify asks the server whether creds are still accepted.
func (c *Client) Verify(ctx context.Context, creds domain.Credentials) (*driven.VerifyResult, error) {
	var resp verifyResponse
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: pathVerify, creds: creds}, &resp); err != nil {
		return nil, err
	}
	if resp.Authenticated == nil {
		return nil, fmt.Errorf("%w: verify response has no authenticated flag", domain.ErrUnexpectedResponse)
	}

	result := &driven.VerifyResult{Authenticated: *resp.Authenticated}
	if resp.User != nil {
		user := resp.User.toDomain()
		result.User = &user
	}
	return result, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context, creds domain.Credentials) error {
	return c.doJSON(ctx, request{method: http.MethodPost, path: pathLogout, creds: creds}, nil)
}
