package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session maps an opaque bearer token to a user for the lifetime of a login.
// It carries identity only: the delegated access token is resolved through
// the lifecycle manager on every request, never cached here.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps login sessions with TTL semantics. Implementations:
// in-process ttlcache for single-node deployments, Redis for multi-instance.
type SessionStore interface {
	Set(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
