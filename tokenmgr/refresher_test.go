package tokenmgr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "go.pilab.hu/tubedash/errors"
)

func newTestRefresher(t *testing.T, handler http.HandlerFunc, opts ...RefresherOption) (*OAuth2Refresher, *int64) {
	t.Helper()

	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	opts = append([]RefresherOption{WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL + "/token"})}, opts...)
	return NewOAuth2Refresher("test-client-id", "test-client-secret", opts...), &requests
}

func TestOAuth2Refresher_Success(t *testing.T) {
	refresher, requests := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "R1", r.FormValue("refresh_token"))
		assert.Equal(t, "test-client-id", r.FormValue("client_id"))
		assert.Equal(t, "test-client-secret", r.FormValue("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"A2","token_type":"Bearer","expires_in":3600}`))
	})

	before := time.Now()
	result, err := refresher.Refresh(context.Background(), "R1")
	require.NoError(t, err)

	assert.Equal(t, "A2", result.AccessToken)
	assert.Empty(t, result.RefreshToken, "refresh token was not rotated")
	require.NotNil(t, result.ExpiresAt)
	assert.True(t, result.ExpiresAt.After(before.Add(3500*time.Second)))
	assert.True(t, result.ExpiresAt.Before(before.Add(3700*time.Second)))
	assert.EqualValues(t, 1, atomic.LoadInt64(requests), "exactly one outbound request")
}

func TestOAuth2Refresher_RotatedRefreshToken(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"A2","token_type":"Bearer","expires_in":3600,"refresh_token":"R2"}`))
	})

	result, err := refresher.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "R2", result.RefreshToken)
}

func TestOAuth2Refresher_InvalidGrant(t *testing.T) {
	refresher, requests := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	})

	_, err := refresher.Refresh(context.Background(), "R1")
	require.ErrorIs(t, err, ErrInvalidGrant)
	assert.EqualValues(t, 1, atomic.LoadInt64(requests), "no retry against a permanently rejecting endpoint")
}

func TestOAuth2Refresher_BadRequestWithoutInvalidGrantIsTransient(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_request"}`))
	})

	_, err := refresher.Refresh(context.Background(), "R1")
	assert.True(t, apperrors.IsAuthKind(err, apperrors.KindTransientProvider), "got %v", err)
}

func TestOAuth2Refresher_ServerErrorIsTransient(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := refresher.Refresh(context.Background(), "R1")
	assert.True(t, apperrors.IsAuthKind(err, apperrors.KindTransientProvider), "got %v", err)
	assert.False(t, apperrors.IsAuthKind(err, apperrors.KindRefreshUnavailable))
}

func TestOAuth2Refresher_MalformedBodyIsTransient(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	})

	_, err := refresher.Refresh(context.Background(), "R1")
	assert.True(t, apperrors.IsAuthKind(err, apperrors.KindTransientProvider), "got %v", err)
}

func TestOAuth2Refresher_TimeoutIsTransient(t *testing.T) {
	refresher, _ := newTestRefresher(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"A2","token_type":"Bearer","expires_in":3600}`))
	}, WithTimeout(30*time.Millisecond))

	_, err := refresher.Refresh(context.Background(), "R1")
	assert.True(t, apperrors.IsAuthKind(err, apperrors.KindTransientProvider), "got %v", err)
}
