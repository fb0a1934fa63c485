package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend fails every call
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("quota exceeded")
}

func (failingBackend) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func (failingBackend) Delete(context.Context, string) error {
	return errors.New("quota exceeded")
}

type entry struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

func TestStore_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())

	require.NoError(t, s.Write(ctx, KeyFavorites, []entry{{ID: 1, Name: "Dune"}}))

	var got []entry
	require.True(t, s.Read(ctx, KeyFavorites, &got))
	assert.Equal(t, []entry{{ID: 1, Name: "Dune"}}, got)
}

func TestStore_ReadMissingReturnsDefault(t *testing.T) {
	s := NewStore(NewMemoryBackend())

	got := ReadOr(context.Background(), s, KeyFavorites, []entry{})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStore_ReadCorruptValueReturnsDefault(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, KeyFavorites, "{not json"))

	s := NewStore(backend)
	got := ReadOr(ctx, s, KeyFavorites, []entry{})
	assert.Empty(t, got)
}

func TestStore_BackendFailureDegrades(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingBackend{})

	_, ok := s.ReadString(ctx, KeySessionKey)
	assert.False(t, ok)
	assert.Error(t, s.WriteString(ctx, KeySessionKey, "guest_x"))
	assert.Error(t, s.Clear(ctx, KeySessionKey))
}

func TestStore_NilBackend(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	assert.False(t, s.Read(ctx, KeyUser, &entry{}))
	assert.ErrorIs(t, s.Write(ctx, KeyUser, entry{}), ErrUnavailable)
	assert.ErrorIs(t, s.Clear(ctx, KeyUser), ErrUnavailable)
}

func TestStore_EncodeFailure(t *testing.T) {
	s := NewStore(NewMemoryBackend())

	err := s.Write(context.Background(), "bad", map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	require.NoError(t, s.WriteString(ctx, KeyAccessToken, "abc"))

	require.NoError(t, s.Clear(ctx, KeyAccessToken))

	_, ok := s.ReadString(ctx, KeyAccessToken)
	assert.False(t, ok)
}
