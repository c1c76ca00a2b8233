package apiclient

import (
	"context"
	"net/http"
)

const (
	pathRegister = "/api/Auth/register"
	pathLogin    = "/api/Auth/login"
	pathLogout   = "/api/Auth/logout"
)

// Register creates an account. It is sent without a bearer token.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doAnonymous(ctx, http.MethodPost, pathRegister, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token pair. It is sent without a bearer
// token, and a 401 is returned as-is: it means the credentials were wrong.
func (c *Client) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doAnonymous(ctx, http.MethodPost, pathLogin, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates refreshToken on the backend.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.Do(ctx, http.MethodPost, pathLogout, RefreshTokenRequest{RefreshToken: refreshToken}, nil)
}

// Refresh exchanges refreshToken for a new pair without touching the token
// store. The automatic refresh-on-401 path uses the same call.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	return c.refresh(ctx, refreshToken, c.newRequestID())
}
