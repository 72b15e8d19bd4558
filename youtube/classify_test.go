package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "go.pilab.hu/tubedash/errors"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.APIErrorKind
	}{
		{
			name:   "401 without body",
			status: 401,
			body:   "",
			want:   apperrors.KindUnauthorized,
		},
		{
			name:   "authError reason on 403",
			status: 403,
			body:   `{"error":{"code":403,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`,
			want:   apperrors.KindUnauthorized,
		},
		{
			name:   "quotaExceeded on 403",
			status: 403,
			body:   `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"reason":"quotaExceeded"}]}}`,
			want:   apperrors.KindQuotaExceeded,
		},
		{
			name:   "rateLimitExceeded",
			status: 403,
			body:   `{"error":{"code":403,"errors":[{"reason":"rateLimitExceeded"}]}}`,
			want:   apperrors.KindQuotaExceeded,
		},
		{
			name:   "commentsDisabled",
			status: 403,
			body:   `{"error":{"code":403,"message":"The video identified by the videoId parameter has disabled comments.","errors":[{"reason":"commentsDisabled"}]}}`,
			want:   apperrors.KindCommentsDisabled,
		},
		{
			name:   "plain 403",
			status: 403,
			body:   `{"error":{"code":403,"message":"The request is not properly authorized.","errors":[{"reason":"forbidden"}]}}`,
			want:   apperrors.KindPermissionDenied,
		},
		{
			name:   "404",
			status: 404,
			body:   `{"error":{"code":404,"message":"The video identified by the id parameter cannot be found.","errors":[{"reason":"videoNotFound"}]}}`,
			want:   apperrors.KindNotFound,
		},
		{
			name:   "400 bad request",
			status: 400,
			body:   `{"error":{"code":400,"message":"The request metadata is invalid.","errors":[{"reason":"invalidRequestMetadata"}]}}`,
			want:   apperrors.KindMalformedRequest,
		},
		{
			name:   "5xx is unknown",
			status: 503,
			body:   `{"error":{"code":503,"message":"Backend Error"}}`,
			want:   apperrors.KindUnknown,
		},
		{
			name:   "unparseable body falls back to status",
			status: 403,
			body:   `<html>forbidden</html>`,
			want:   apperrors.KindPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.NotEmpty(t, got.UserMessage())
		})
	}
}
