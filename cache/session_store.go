package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"go.pilab.hu/tubedash/domain"
)

// MemorySessionStore implements domain.SessionStore using ttlcache. Sessions
// carry identity only; access tokens are never cached here.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionStore creates an in-memory session store with automatic
// expiry cleanup.
func NewMemorySessionStore(defaultTTL time.Duration) *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.Session](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)

	go cache.Start()

	return &MemorySessionStore{cache: cache}
}

// Set implements domain.SessionStore.Set.
func (s *MemorySessionStore) Set(_ context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(session.Token, session, ttl)
	return nil
}

// Get implements domain.SessionStore.Get.
func (s *MemorySessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	item := s.cache.Get(token)
	if item == nil {
		return nil, domain.ErrSessionNotFound
	}
	return item.Value(), nil
}

// Delete implements domain.SessionStore.Delete.
func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(token)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ domain.SessionStore = (*MemorySessionStore)(nil)
