package service

import (
	"context"

	"storefront/internal/domains/auth/model"
	"storefront/internal/preference"
)

// TokenStore keeps the signed-in session in the preference store under the
// keys the web client uses.
type TokenStore struct {
	store *preference.Store
}

func NewTokenStore(store *preference.Store) *TokenStore {
	return &TokenStore{store: store}
}

// AccessToken returns the stored access token or "".
func (t *TokenStore) AccessToken(ctx context.Context) string {
	v, _ := t.store.ReadString(ctx, preference.KeyAccessToken)
	return v
}

func (t *TokenStore) RefreshToken(ctx context.Context) string {
	v, _ := t.store.ReadString(ctx, preference.KeyRefreshToken)
	return v
}

// User returns the cached account, nil when absent or unreadable.
func (t *TokenStore) User(ctx context.Context) *model.User {
	var u model.User
	if !t.store.Read(ctx, preference.KeyUser, &u) {
		return nil
	}
	return &u
}

// Save persists a token pair and, when present, the user.
func (t *TokenStore) Save(ctx context.Context, pair *model.TokenPair) error {
	if err := t.store.WriteString(ctx, preference.KeyAccessToken, pair.Access); err != nil {
		return err
	}
	if pair.Refresh != "" {
		if err := t.store.WriteString(ctx, preference.KeyRefreshToken, pair.Refresh); err != nil {
			return err
		}
	}
	if pair.User != nil {
		return t.SaveUser(ctx, pair.User)
	}
	return nil
}

func (t *TokenStore) SaveUser(ctx context.Context, u *model.User) error {
	return t.store.Write(ctx, preference.KeyUser, u)
}

// Clear removes every auth entry.
func (t *TokenStore) Clear(ctx context.Context) {
	for _, k := range []string{preference.KeyAccessToken, preference.KeyRefreshToken, preference.KeyUser} {
		_ = t.store.Clear(ctx, k)
	}
}
