// Package auth verifies sessions issued by the external identity provider
// and carries the verified user through the request context. There is no
// ambient session state: handlers that need the caller read it from ctx.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrUnauthorized = errors.New("invalid or expired session")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

// Verifier resolves a bearer token to the identity that owns it.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

// Client verifies tokens against the provider's user endpoint.
type Client struct {
	BaseURL string
	AnonKey string
	HTTP    *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		AnonKey: anonKey,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Verify(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("apikey", c.AnonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, ErrUnauthorized
	}

	var body struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Metadata struct {
			Name string `json:"name"`
		} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return User{}, fmt.Errorf("auth provider: decode user: %w", err)
	}
	if body.ID == "" {
		return User{}, ErrUnauthorized
	}
	return User{ID: body.ID, Email: body.Email, Name: body.Metadata.Name, Role: body.Role}, nil
}
