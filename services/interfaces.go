package services

import (
	"context"

	"go.pilab.hu/tubedash/youtube"
)

// TokenSource yields a usable access token for a user. Acquire returns the
// stored token when it is still fresh; ForceRefresh exchanges the refresh
// token regardless of stored expiry, which is how provider-side revocation
// and optimistic expiry assumptions get corrected.
type TokenSource interface {
	Acquire(ctx context.Context, userID string) (string, error)
	ForceRefresh(ctx context.Context, userID string) (string, error)
}

// VideoAPI is the slice of the YouTube Data API the dashboard needs.
type VideoAPI interface {
	GetVideo(ctx context.Context, accessToken, videoID string) (*youtube.Video, error)
	UpdateVideo(ctx context.Context, accessToken, videoID string, update youtube.VideoUpdate) (*youtube.Video, error)
	ListCommentThreads(ctx context.Context, accessToken, videoID string) ([]*youtube.CommentThread, error)
	InsertComment(ctx context.Context, accessToken, videoID, text string) (*youtube.CommentThread, error)
	DeleteComment(ctx context.Context, accessToken, commentID string) error
}

var _ VideoAPI = (*youtube.Client)(nil)
