package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/tubedash/domain"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, "tubedash"), mr
}

func TestSessionStore_SetGetDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "tok-1",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Set(ctx, session))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "tok-1", got.Token)

	require.NoError(t, store.Delete(ctx, "tok-1"))

	_, err = store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_MissingToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_ExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "tok-ttl",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(30 * time.Second),
	}
	require.NoError(t, store.Set(ctx, session))

	mr.FastForward(time.Minute)

	_, err := store.Get(ctx, "tok-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_KeysAreNamespaced(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	session := &domain.Session{
		Token:     "tok-ns",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Set(ctx, session))

	assert.True(t, mr.Exists("tubedash:session:tok-ns"))
}
