package domain

import (
	"context"
	"errors"
	"time"
)

// ProviderGoogle is the only identity provider currently wired in.
const ProviderGoogle = "google"

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrVersionConflict    = errors.New("credential version conflict")
)

// TokenRecord holds the delegated OAuth2 credentials for one (user, provider)
// pair. AccessToken and RefreshToken are sealed before they reach the store.
type TokenRecord struct {
	UserID            string     `bson:"user_id" json:"user_id"`
	Provider          string     `bson:"provider" json:"provider"`
	ProviderAccountID string     `bson:"provider_account_id" json:"provider_account_id"`
	AccessToken       string     `bson:"access_token" json:"-"`
	RefreshToken      string     `bson:"refresh_token,omitempty" json:"-"`
	ExpiresAt         *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Version           int64      `bson:"version" json:"version"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the access token must be treated as stale at now.
// A record without an expiry is assumed fresh; the delegated API's 401 is the
// fallback signal for that case.
func (r *TokenRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// CredentialRepository is the durable store for token records. There is at
// most one record per (user, provider); writes go through CompareAndSwap so
// concurrent refreshers cannot both win.
type CredentialRepository interface {
	GetByUserAndProvider(ctx context.Context, userID, provider string) (*TokenRecord, error)

	// CompareAndSwap replaces the record iff its stored version still equals
	// expectedVersion, writing rec with Version = expectedVersion+1. Returns
	// ErrVersionConflict when another writer got there first.
	CompareAndSwap(ctx context.Context, userID, provider string, expectedVersion int64, rec *TokenRecord) error

	// Upsert stores the record produced by the external consent flow,
	// replacing any previous credential for the same (user, provider).
	Upsert(ctx context.Context, rec *TokenRecord) error
}
