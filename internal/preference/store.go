// Package preference is the local key-value store behind favorites, the guest
// session key and the cached auth session. Every operation degrades to an
// empty default instead of failing the caller.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Well-known keys shared with the web client.
const (
	KeySessionKey   = "cart_session_key"
	KeyFavorites    = "story_haven_favoritos"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// ErrUnavailable is returned by Write/Clear when the store has no backend.
var ErrUnavailable = errors.New("preference storage unavailable")

// Backend is a string-keyed, string-valued persistent store.
type Backend interface {
	// Get returns (value, true, nil) on hit and ("", false, nil) on miss.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store serializes values as JSON over a Backend.
type Store struct {
	backend Backend
}

// NewStore wraps backend. A nil backend yields a store that always reads
// defaults and rejects writes.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Read decodes the value stored under key into dest.
// It returns false, leaving dest untouched, when the key is absent or the
// stored value cannot be read or decoded.
func (s *Store) Read(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := s.ReadString(ctx, key)
	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("preference: stored value is not valid JSON, using default")
		return false
	}

	return true
}

// ReadOr is the generic form of Read that returns def on any failure.
func ReadOr[T any](ctx context.Context, s *Store, key string, def T) T {
	var v T
	if !s.Read(ctx, key, &v) {
		return def
	}
	return v
}

// Write encodes value as JSON and persists it. The returned error is a
// best-effort indicator; it is already logged.
func (s *Store) Write(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("preference: cannot encode value")
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.WriteString(ctx, key, string(data))
}

// ReadString returns the raw stored value.
func (s *Store) ReadString(ctx context.Context, key string) (string, bool) {
	if s == nil || s.backend == nil {
		return "", false
	}

	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("preference: read failed, using default")
		return "", false
	}
	return raw, ok
}

// WriteString persists a raw value.
func (s *Store) WriteString(ctx context.Context, key, value string) error {
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}

	if err := s.backend.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("preference: write failed")
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Clear removes the entry entirely.
func (s *Store) Clear(ctx context.Context, key string) error {
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}

	if err := s.backend.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("preference: clear failed")
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}
