package api

import (
	"context"
	"net/http"

	auth "storefront/internal/domains/auth/model"
)

// Login calls POST /auth/login/.
func (c *Client) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
	var pair auth.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login/", nil, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Register calls POST /auth/registro/.
func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenPair, error) {
	var pair auth.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/registro/", nil, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile calls GET /auth/perfil/.
func (c *Client) Profile(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.do(ctx, http.MethodGet, "/auth/perfil/", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
