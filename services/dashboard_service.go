package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"go.pilab.hu/tubedash/domain"
	apperrors "go.pilab.hu/tubedash/errors"
	"go.pilab.hu/tubedash/internal/audit"
	"go.pilab.hu/tubedash/youtube"
)

// Dashboard is the aggregated per-video view: the video's live details and
// statistics, its comment threads, and the owner's private notes.
type Dashboard struct {
	Video    *youtube.Video           `json:"video"`
	Comments []*youtube.CommentThread `json:"comments"`
	Notes    []*domain.Note           `json:"notes"`
}

// DashboardService executes YouTube calls on behalf of a user, acquiring the
// access token per call and correcting a stale-token rejection with exactly
// one forced refresh and retry.
type DashboardService struct {
	tokens TokenSource
	api    VideoAPI
	notes  domain.NoteRepository
	audit  *audit.Recorder
}

func NewDashboardService(tokens TokenSource, api VideoAPI, notes domain.NoteRepository, recorder *audit.Recorder) *DashboardService {
	return &DashboardService{
		tokens: tokens,
		api:    api,
		notes:  notes,
		audit:  recorder,
	}
}

// withToken acquires an access token and runs fn with it. When the provider
// rejects the token as unauthorized despite the store considering it fresh,
// the stored expiry was wrong or the token was revoked; one forced refresh
// and one retry corrects that. A second rejection is surfaced as-is.
func (s *DashboardService) withToken(ctx context.Context, userID string, fn func(token string) error) error {
	token, err := s.tokens.Acquire(ctx, userID)
	if err != nil {
		return err
	}

	err = fn(token)
	if err == nil || !apperrors.IsUnauthorized(err) {
		return err
	}

	log.Debug().Str("user_id", userID).Msg("provider rejected access token, forcing refresh")
	token, refreshErr := s.tokens.ForceRefresh(ctx, userID)
	if refreshErr != nil {
		return refreshErr
	}
	return fn(token)
}

// GetDashboard loads the video and its comment threads from the provider in
// parallel, plus the user's notes from local storage.
func (s *DashboardService) GetDashboard(ctx context.Context, userID, videoID string) (*Dashboard, error) {
	dash := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.withToken(gctx, userID, func(token string) error {
			video, err := s.api.GetVideo(gctx, token, videoID)
			if err != nil {
				return err
			}
			dash.Video = video
			return nil
		})
	})
	g.Go(func() error {
		return s.withToken(gctx, userID, func(token string) error {
			threads, err := s.api.ListCommentThreads(gctx, token, videoID)
			if err != nil {
				// A video with comments disabled still has a dashboard.
				var apiErr *apperrors.APIError
				if errors.As(err, &apiErr) && apiErr.Kind == apperrors.KindCommentsDisabled {
					dash.Comments = []*youtube.CommentThread{}
					return nil
				}
				return err
			}
			dash.Comments = threads
			return nil
		})
	})
	g.Go(func() error {
		notes, err := s.notes.ListByUserAndVideo(gctx, userID, videoID)
		if err != nil {
			return fmt.Errorf("loading notes: %w", err)
		}
		dash.Notes = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}

// UpdateVideo changes the video's title and/or description. The provider
// requires a category on every snippet update, so when the caller does not
// supply one the current category is read first and carried over.
func (s *DashboardService) UpdateVideo(ctx context.Context, userID, videoID string, update youtube.VideoUpdate) (*youtube.Video, error) {
	var updated *youtube.Video
	err := s.withToken(ctx, userID, func(token string) error {
		filled := update
		if filled.CategoryID == "" || filled.Title == "" || filled.Description == "" {
			current, err := s.api.GetVideo(ctx, token, videoID)
			if err != nil {
				return err
			}
			if filled.CategoryID == "" {
				filled.CategoryID = current.CategoryID
			}
			if filled.Title == "" {
				filled.Title = current.Title
			}
			if filled.Description == "" {
				filled.Description = current.Description
			}
		}

		video, err := s.api.UpdateVideo(ctx, token, videoID, filled)
		if err != nil {
			return err
		}
		updated = video
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, domain.EventVideoDetailsUpdated, map[string]any{
		"video_id": videoID,
		"title":    updated.Title,
	})
	return updated, nil
}

// ListComments returns the video's comment threads.
func (s *DashboardService) ListComments(ctx context.Context, userID, videoID string) ([]*youtube.CommentThread, error) {
	var threads []*youtube.CommentThread
	err := s.withToken(ctx, userID, func(token string) error {
		t, err := s.api.ListCommentThreads(ctx, token, videoID)
		if err != nil {
			return err
		}
		threads = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return threads, nil
}

// PostComment adds a top-level comment to the video on behalf of the user.
func (s *DashboardService) PostComment(ctx context.Context, userID, videoID, text string) (*youtube.CommentThread, error) {
	if text == "" {
		return nil, errors.New("comment text is required")
	}

	var thread *youtube.CommentThread
	err := s.withToken(ctx, userID, func(token string) error {
		t, err := s.api.InsertComment(ctx, token, videoID, text)
		if err != nil {
			return err
		}
		thread = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, domain.EventCommentAdded, map[string]any{
		"video_id":  videoID,
		"thread_id": thread.ID,
	})
	return thread, nil
}

// DeleteComment removes a comment by its provider-side ID.
func (s *DashboardService) DeleteComment(ctx context.Context, userID, commentID string) error {
	err := s.withToken(ctx, userID, func(token string) error {
		return s.api.DeleteComment(ctx, token, commentID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, userID, domain.EventCommentDeleted, map[string]any{
		"comment_id": commentID,
	})
	return nil
}

// CreateNote stores a private note on a video. Notes never leave local
// storage and require no provider call.
func (s *DashboardService) CreateNote(ctx context.Context, userID, videoID, content string, tags []string) (*domain.Note, error) {
	if content == "" {
		return nil, errors.New("note content is required")
	}

	note := &domain.Note{
		UserID:  userID,
		VideoID: videoID,
		Content: content,
		Tags:    tags,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.audit.Record(ctx, userID, domain.EventNoteCreated, map[string]any{
		"video_id": videoID,
		"note_id":  note.ID,
	})
	return note, nil
}

// ListNotes returns the user's notes on a video, newest first.
func (s *DashboardService) ListNotes(ctx context.Context, userID, videoID string) ([]*domain.Note, error) {
	return s.notes.ListByUserAndVideo(ctx, userID, videoID)
}

// DeleteNote removes a note owned by the user.
func (s *DashboardService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.notes.Delete(ctx, noteID, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, userID, domain.EventNoteDeleted, map[string]any{
		"note_id": noteID,
	})
	return nil
}
