// Package youtube is a thin REST client for the YouTube Data API v3. Every
// call takes the bearer access token explicitly; the package holds no
// credential state of its own.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

const defaultHTTPTimeout = 15 * time.Second

// Client calls the YouTube Data API on behalf of a user. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire-level resource shapes. Statistics counts are strings on the wire.
type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		CategoryID  string `json:"categoryId"`
		ChannelID   string `json:"channelId"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

func (v *videoResource) toVideo() *Video {
	return &Video{
		ID:           v.ID,
		Title:        v.Snippet.Title,
		Description:  v.Snippet.Description,
		CategoryID:   v.Snippet.CategoryID,
		ChannelID:    v.Snippet.ChannelID,
		ViewCount:    v.Statistics.ViewCount,
		LikeCount:    v.Statistics.LikeCount,
		CommentCount: v.Statistics.CommentCount,
	}
}

type commentResource struct {
	ID      string `json:"id"`
	Snippet struct {
		AuthorDisplayName string    `json:"authorDisplayName"`
		TextDisplay       string    `json:"textDisplay"`
		TextOriginal      string    `json:"textOriginal"`
		LikeCount         int64     `json:"likeCount"`
		PublishedAt       time.Time `json:"publishedAt"`
	} `json:"snippet"`
}

func (c *commentResource) toComment() Comment {
	text := c.Snippet.TextDisplay
	if text == "" {
		text = c.Snippet.TextOriginal
	}
	return Comment{
		ID:          c.ID,
		Author:      c.Snippet.AuthorDisplayName,
		Text:        text,
		LikeCount:   c.Snippet.LikeCount,
		PublishedAt: c.Snippet.PublishedAt,
	}
}

type commentThreadResource struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment commentResource `json:"topLevelComment"`
		TotalReplyCount int64           `json:"totalReplyCount"`
	} `json:"snippet"`
	Replies struct {
		Comments []commentResource `json:"comments"`
	} `json:"replies"`
}

func (t *commentThreadResource) toThread() *CommentThread {
	thread := &CommentThread{
		ID:              t.ID,
		TopLevelComment: t.Snippet.TopLevelComment.toComment(),
		TotalReplyCount: t.Snippet.TotalReplyCount,
	}
	for _, reply := range t.Replies.Comments {
		thread.Replies = append(thread.Replies, reply.toComment())
	}
	return thread
}

// GetVideo fetches snippet and statistics for a single video.
func (c *Client) GetVideo(ctx context.Context, accessToken, videoID string) (*Video, error) {
	query := url.Values{"part": {"snippet,statistics"}, "id": {videoID}}

	var out struct {
		Items []videoResource `json:"items"`
	}
	if err := c.do(ctx, accessToken, http.MethodGet, "/videos", query, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("video %q not found", videoID)
	}
	return out.Items[0].toVideo(), nil
}

// UpdateVideo replaces the video's editable snippet fields.
func (c *Client) UpdateVideo(ctx context.Context, accessToken, videoID string, update VideoUpdate) (*Video, error) {
	body := map[string]any{
		"id": videoID,
		"snippet": map[string]any{
			"title":       update.Title,
			"description": update.Description,
			"categoryId":  update.CategoryID,
		},
	}

	var out videoResource
	query := url.Values{"part": {"snippet"}}
	if err := c.do(ctx, accessToken, http.MethodPut, "/videos", query, body, &out); err != nil {
		return nil, err
	}
	return out.toVideo(), nil
}

// ListCommentThreads returns the video's top-level comments with replies.
func (c *Client) ListCommentThreads(ctx context.Context, accessToken, videoID string) ([]*CommentThread, error) {
	query := url.Values{"part": {"snippet,replies"}, "videoId": {videoID}}

	var out struct {
		Items []commentThreadResource `json:"items"`
	}
	if err := c.do(ctx, accessToken, http.MethodGet, "/commentThreads", query, nil, &out); err != nil {
		return nil, err
	}
	threads := make([]*CommentThread, 0, len(out.Items))
	for i := range out.Items {
		threads = append(threads, out.Items[i].toThread())
	}
	return threads, nil
}

// InsertComment posts a new top-level comment on the video.
func (c *Client) InsertComment(ctx context.Context, accessToken, videoID, text string) (*CommentThread, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"videoId": videoID,
			"topLevelComment": map[string]any{
				"snippet": map[string]any{"textOriginal": text},
			},
		},
	}

	var out commentThreadResource
	query := url.Values{"part": {"snippet"}}
	if err := c.do(ctx, accessToken, http.MethodPost, "/commentThreads", query, body, &out); err != nil {
		return nil, err
	}
	return out.toThread(), nil
}

// DeleteComment removes a comment by ID.
func (c *Client) DeleteComment(ctx context.Context, accessToken, commentID string) error {
	query := url.Values{"id": {commentID}}
	return c.do(ctx, accessToken, http.MethodDelete, "/comments", query, nil, nil)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyAPIError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}
