package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domains/auth/model"
	"storefront/internal/infrastructure/api"
	"storefront/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// API is the part of the remote client the auth service calls
type API interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.TokenPair, error)
	Profile(ctx context.Context) (*model.User, error)
}

type Service struct {
	api    API
	tokens *TokenStore
	now    func() time.Time
}

func NewService(client API, tokens *TokenStore) *Service {
	return &Service{api: client, tokens: tokens, now: time.Now}
}

// Login exchanges credentials for a token pair and stores it
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	req := model.LoginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pair, err := s.api.Login(ctx, req)
	if err != nil {
		if api.IsUnauthorized(err) || api.StatusCode(err) == 400 {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidLogin, api.MessageOr(err, "wrong username or password"))
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.establish(ctx, pair)
}

// Register creates an account; the API signs the new user in directly
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pair, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.establish(ctx, pair)
}

func (s *Service) establish(ctx context.Context, pair *model.TokenPair) (*model.User, error) {
	if pair == nil || pair.Access == "" {
		return nil, fmt.Errorf("login: server returned no access token")
	}
	if err := s.tokens.Save(ctx, pair); err != nil {
		logger.Warn("auth: session not persisted", map[string]interface{}{"error": err.Error()})
	}

	if pair.User != nil {
		return pair.User, nil
	}
	return s.Profile(ctx)
}

// Profile reloads the account from the API and refreshes the cached copy.
// A 401 means the stored session is dead, so it is cleared.
func (s *Service) Profile(ctx context.Context) (*model.User, error) {
	if s.tokens.AccessToken(ctx) == "" {
		return nil, model.ErrNotAuthenticated
	}

	u, err := s.api.Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.tokens.Clear(ctx)
			return nil, model.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("profile: %w", err)
	}

	_ = s.tokens.SaveUser(ctx, u)
	return u, nil
}

func (s *Service) Logout(ctx context.Context) {
	s.tokens.Clear(ctx)
}

// CurrentUser returns the cached account without calling the API
func (s *Service) CurrentUser(ctx context.Context) *model.User {
	if !s.IsAuthenticated(ctx) {
		return nil
	}
	return s.tokens.User(ctx)
}

// IsAuthenticated reports whether a usable access token is stored. Claims
// are read without verifying the signature; the API does that. Tokens that
// are not JWTs, or carry no exp, count as valid.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token := s.tokens.AccessToken(ctx)
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return s.now().Before(exp.Time)
}
