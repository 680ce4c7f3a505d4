package directus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthTokens is the payload of /auth/login and /auth/refresh.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// Expires is the access token lifetime in milliseconds.
	Expires int64 `json:"expires"`
}

// Login authenticates with email and password and keeps the returned access
// token for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	body := map[string]string{"email": email, "password": password}
	var tokens AuthTokens
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", nil, body, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("login response did not contain an access token")
	}

	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
	return &tokens, nil
}

// Refresh exchanges the refresh token from the last Login for a new pair.
func (c *Client) Refresh(ctx context.Context) (*AuthTokens, error) {
	c.mu.RLock()
	refresh := c.tokens.RefreshToken
	c.mu.RUnlock()
	if refresh == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	body := map[string]string{"refresh_token": refresh, "mode": "json"}
	var tokens AuthTokens
	if err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", nil, body, &tokens); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
	return &tokens, nil
}

// TokenExpiry returns the exp claim of the current access token. Static
// tokens are opaque strings and report ok=false.
func (c *Client) TokenExpiry() (time.Time, bool) {
	token := c.Token()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
