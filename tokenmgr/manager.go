package tokenmgr

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"go.pilab.hu/tubedash/domain"
	apperrors "go.pilab.hu/tubedash/errors"
	"go.pilab.hu/tubedash/internal/metrics"
)

// Manager orchestrates the access-token lifecycle for one provider. Acquire
// is the single entry point for anything that needs delegated API access:
// it returns a usable access token or a classified AuthError, refreshing and
// persisting lazily when the cached token has gone stale.
//
// Concurrency: refresh for a given (user, provider) is at most one in flight
// per process (singleflight); across processes the store's compare-and-swap
// is the arbiter, and a losing writer re-reads the winning record instead of
// double-refreshing.
type Manager struct {
	creds     domain.CredentialRepository
	refresher Refresher
	provider  string
	group     singleflight.Group
	now       func() time.Time
}

type ManagerOption func(*Manager)

// WithClock overrides the manager's time source. Tests only.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithProvider selects the provider key the manager serves. Defaults to
// google.
func WithProvider(provider string) ManagerOption {
	return func(m *Manager) { m.provider = provider }
}

func NewManager(creds domain.CredentialRepository, refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		creds:     creds,
		refresher: refresher,
		provider:  domain.ProviderGoogle,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns a currently valid access token for the user. A fresh cached
// token is returned as-is with no network call and no write; a stale one is
// refreshed, persisted, and returned.
func (m *Manager) Acquire(ctx context.Context, userID string) (string, error) {
	rec, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if !rec.Expired(m.now()) {
		return rec.AccessToken, nil
	}
	return m.refresh(ctx, userID, false)
}

// ForceRefresh treats the cached token as stale regardless of its expiry and
// performs one refresh. Callers invoke it after a 401-class rejection from
// the delegated API, at most once per logical user action.
func (m *Manager) ForceRefresh(ctx context.Context, userID string) (string, error) {
	return m.refresh(ctx, userID, true)
}

func (m *Manager) load(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	rec, err := m.creds.GetByUserAndProvider(ctx, userID, m.provider)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return nil, apperrors.NewUnauthenticated("no credential on file for user")
	}
	if err != nil {
		return nil, apperrors.NewTransientProvider("credential store read failed", err)
	}
	return rec, nil
}

// refresh funnels all refresh attempts for a user through singleflight.
// The shared call runs detached from the triggering request: a cancelled
// caller must not abandon a refresh other waiters depend on, and its result
// is persisted either way.
func (m *Manager) refresh(ctx context.Context, userID string, force bool) (string, error) {
	key := userID + "|" + m.provider
	ch := m.group.DoChan(key, func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx), userID, force)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", apperrors.NewTransientProvider("request cancelled while refresh in flight", ctx.Err())
	}
}

func (m *Manager) doRefresh(ctx context.Context, userID string, force bool) (string, error) {
	// Re-read inside the critical section: a concurrent refresher (in this
	// process or another) may already have written a fresh record.
	rec, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if !force && !rec.Expired(m.now()) {
		return rec.AccessToken, nil
	}

	if rec.RefreshToken == "" {
		return "", apperrors.NewRefreshUnavailable("no refresh grant on file; re-consent required")
	}

	result, err := m.refresher.Refresh(ctx, rec.RefreshToken)
	if errors.Is(err, ErrInvalidGrant) {
		metrics.RefreshInvalidGrantTotal.Inc()
		m.clearRefreshToken(ctx, rec)
		return "", apperrors.NewRefreshUnavailable("refresh token rejected by provider; re-consent required")
	}
	if err != nil {
		// Already classified transient; the stale token and refresh token
		// stay untouched for a later attempt.
		metrics.RefreshTransientFailureTotal.Inc()
		return "", err
	}

	updated := *rec
	updated.AccessToken = result.AccessToken
	updated.ExpiresAt = result.ExpiresAt
	if result.RefreshToken != "" {
		updated.RefreshToken = result.RefreshToken
	}

	err = m.creds.CompareAndSwap(ctx, userID, m.provider, rec.Version, &updated)
	if errors.Is(err, domain.ErrVersionConflict) {
		// Another writer won the race. Discard our result and serve theirs.
		metrics.RefreshWriteConflictTotal.Inc()
		winner, loadErr := m.load(ctx, userID)
		if loadErr != nil {
			return "", loadErr
		}
		log.Debug().Str("user_id", userID).Msg("lost refresh write race, serving winning token")
		return winner.AccessToken, nil
	}
	if err != nil {
		return "", apperrors.NewTransientProvider("credential store write failed", err)
	}

	metrics.RefreshSuccessTotal.Inc()
	log.Info().Str("user_id", userID).Str("provider", m.provider).Msg("access token refreshed")
	return result.AccessToken, nil
}

// clearRefreshToken removes a permanently rejected refresh grant from the
// store so subsequent acquires fail fast with RefreshUnavailable. Revocation
// keeps the record (with the grant cleared), it is not a tombstone.
func (m *Manager) clearRefreshToken(ctx context.Context, rec *domain.TokenRecord) {
	cleared := *rec
	cleared.RefreshToken = ""
	err := m.creds.CompareAndSwap(ctx, rec.UserID, rec.Provider, rec.Version, &cleared)
	if err != nil && !errors.Is(err, domain.ErrVersionConflict) {
		log.Warn().Err(err).Str("user_id", rec.UserID).Msg("failed to clear revoked refresh token")
	}
}
