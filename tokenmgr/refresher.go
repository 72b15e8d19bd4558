// Package tokenmgr implements the OAuth2 access-token lifecycle: deciding
// freshness, refreshing against the identity provider, and persisting the
// result so every caller sees a single always-valid credential.
package tokenmgr

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	googleoauth2 "golang.org/x/oauth2/google"

	apperrors "go.pilab.hu/tubedash/errors"
)

const defaultRefreshTimeout = 10 * time.Second

// ErrInvalidGrant marks a refresh token the provider permanently rejected
// (revoked or expired grant). The stored refresh token must be cleared and
// the user sent back through consent.
var ErrInvalidGrant = errors.New("invalid_grant: refresh token revoked or expired")

// RefreshResult is the outcome of a successful refresh_token grant.
type RefreshResult struct {
	AccessToken string
	ExpiresAt   *time.Time
	// RefreshToken is non-empty only when the provider rotated it.
	RefreshToken string
}

// Refresher performs a single refresh_token exchange against the provider's
// token endpoint. No internal retries: retry policy belongs to the caller.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
}

// OAuth2Refresher is the production Refresher, built on golang.org/x/oauth2.
type OAuth2Refresher struct {
	conf    *oauth2.Config
	timeout time.Duration
}

type RefresherOption func(*OAuth2Refresher)

// WithEndpoint overrides the provider token endpoint. Used by tests and for
// non-Google deployments.
func WithEndpoint(endpoint oauth2.Endpoint) RefresherOption {
	return func(r *OAuth2Refresher) { r.conf.Endpoint = endpoint }
}

// WithTimeout bounds the refresh network call. A timeout is classified as a
// transient provider failure, never retried within the same call.
func WithTimeout(d time.Duration) RefresherOption {
	return func(r *OAuth2Refresher) { r.timeout = d }
}

// NewOAuth2Refresher creates a Refresher for the Google token endpoint with
// the given client credentials.
func NewOAuth2Refresher(clientID, clientSecret string, opts ...RefresherOption) *OAuth2Refresher {
	r := &OAuth2Refresher{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleoauth2.Endpoint,
		},
		timeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	// Client credentials go in the POST body. Pinning the style also disables
	// x/oauth2 auth-style auto-detection, which would issue a second request
	// after a failed first attempt.
	r.conf.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	return r
}

// Refresh exchanges the refresh token for a new access token. Exactly one
// outbound request is made.
func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyRefreshError(err)
	}

	res := &RefreshResult{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		res.ExpiresAt = &expiry
	}
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		log.Debug().Msg("provider rotated refresh token")
		res.RefreshToken = tok.RefreshToken
	}
	return res, nil
}

// classifyRefreshError maps a token-endpoint failure onto the error taxonomy.
// Only a 400/401 response with an invalid_grant-shaped body is terminal;
// everything else (5xx, malformed body, network, timeout) is transient and
// leaves the stored refresh token usable for a later attempt.
func classifyRefreshError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized {
			if retrieveErr.ErrorCode == "invalid_grant" ||
				bytes.Contains(retrieveErr.Body, []byte("invalid_grant")) {
				return ErrInvalidGrant
			}
		}
	}
	return apperrors.NewTransientProvider("token refresh failed", err)
}
