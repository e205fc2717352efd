package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

func (c *Client) Register(ctx context.Context, r RegisterRequest) (*Session, error) {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return nil, errors.New("api: email and password required")
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, r, &s, false); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("api: email and password required")
	}
	in := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, in, &s, false); err != nil {
		return nil, err
	}
	return &s, nil
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}
