package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"

	"storefront/internal/preference"

	"github.com/rs/zerolog/log"
)

// GuestPrefix starts every generated session key
const GuestPrefix = "guest_"

// Manager owns the guest cart session key. The key is only sent to the API
// while nobody is signed in.
type Manager struct {
	store *preference.Store

	mu sync.Mutex
	// ephemeral holds a generated key the store refused to persist
	ephemeral string
}

func NewManager(store *preference.Store) *Manager {
	return &Manager{store: store}
}

// GetOrCreate returns the current key, generating and persisting one on first
// use. It never fails: if persisting fails the key lives in memory until the
// process exits, and takes precedence over whatever the store still holds.
func (m *Manager) GetOrCreate(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key := m.currentLocked(ctx); key != "" {
		return key
	}

	key := generateKey()
	if err := m.store.WriteString(ctx, preference.KeySessionKey, key); err != nil {
		log.Warn().Err(err).Msg("session: key not persisted, keeping it in memory")
		m.ephemeral = key
	}
	return key
}

// Replace adopts a key echoed by the server. Empty or unchanged keys are
// ignored.
func (m *Manager) Replace(ctx context.Context, key string) {
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentLocked(ctx) == key {
		return
	}
	if err := m.store.WriteString(ctx, preference.KeySessionKey, key); err != nil {
		log.Warn().Err(err).Msg("session: server key not persisted, keeping it in memory")
		m.ephemeral = key
		return
	}
	m.ephemeral = ""
	log.Debug().Str("session_key", key).Msg("session: key replaced by server")
}

// Clear forgets the key; the next GetOrCreate generates a new one.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ephemeral = ""
	_ = m.store.Clear(ctx, preference.KeySessionKey)
}

func (m *Manager) currentLocked(ctx context.Context) string {
	if m.ephemeral != "" {
		return m.ephemeral
	}
	key, _ := m.store.ReadString(ctx, preference.KeySessionKey)
	return key
}

func generateKey() string {
	return GuestPrefix + segment() + segment()
}

func segment() string {
	return strconv.FormatUint(rand.Uint64(), 36)
}
