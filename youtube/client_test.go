package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go.pilab.hu/tubedash/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL))
}

func TestClient_GetVideo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		assert.Equal(t, "snippet,statistics", r.URL.Query().Get("part"))
		assert.Equal(t, "vid-1", r.URL.Query().Get("id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{
			"id":"vid-1",
			"snippet":{"title":"My Video","description":"Desc","categoryId":"28","channelId":"chan-1"},
			"statistics":{"viewCount":"1200","likeCount":"45","commentCount":"7"}
		}]}`))
	})

	video, err := client.GetVideo(context.Background(), "A1", "vid-1")
	require.NoError(t, err)

	assert.Equal(t, "vid-1", video.ID)
	assert.Equal(t, "My Video", video.Title)
	assert.Equal(t, "28", video.CategoryID)
	assert.Equal(t, "1200", video.ViewCount)
	assert.Equal(t, "45", video.LikeCount)
}

func TestClient_UpdateVideo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vid-1", body["id"])
		snippet := body["snippet"].(map[string]any)
		assert.Equal(t, "New Title", snippet["title"])
		assert.Equal(t, "New Desc", snippet["description"])
		assert.Equal(t, "28", snippet["categoryId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"vid-1","snippet":{"title":"New Title","description":"New Desc","categoryId":"28"}}`))
	})

	video, err := client.UpdateVideo(context.Background(), "A1", "vid-1", VideoUpdate{
		Title:       "New Title",
		Description: "New Desc",
		CategoryID:  "28",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", video.Title)
}

func TestClient_ListCommentThreads(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commentThreads", r.URL.Path)
		assert.Equal(t, "vid-1", r.URL.Query().Get("videoId"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{
			"id":"thread-1",
			"snippet":{
				"topLevelComment":{"id":"c1","snippet":{"authorDisplayName":"Alice","textDisplay":"Nice video","likeCount":3,"publishedAt":"2026-01-02T15:04:05Z"}},
				"totalReplyCount":1
			},
			"replies":{"comments":[{"id":"c2","snippet":{"authorDisplayName":"Bob","textOriginal":"Agreed"}}]}
		}]}`))
	})

	threads, err := client.ListCommentThreads(context.Background(), "A1", "vid-1")
	require.NoError(t, err)
	require.Len(t, threads, 1)

	assert.Equal(t, "thread-1", threads[0].ID)
	assert.Equal(t, "Alice", threads[0].TopLevelComment.Author)
	assert.Equal(t, "Nice video", threads[0].TopLevelComment.Text)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "Agreed", threads[0].Replies[0].Text)
}

func TestClient_InsertComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/commentThreads", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		snippet := body["snippet"].(map[string]any)
		assert.Equal(t, "vid-1", snippet["videoId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"thread-2","snippet":{"topLevelComment":{"id":"c3","snippet":{"textOriginal":"First!"}},"totalReplyCount":0}}`))
	})

	thread, err := client.InsertComment(context.Background(), "A1", "vid-1", "First!")
	require.NoError(t, err)
	assert.Equal(t, "thread-2", thread.ID)
	assert.Equal(t, "First!", thread.TopLevelComment.Text)
}

func TestClient_DeleteComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/comments", r.URL.Path)
		assert.Equal(t, "c1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteComment(context.Background(), "A1", "c1"))
}

func TestClient_UnauthorizedSurfacesAsSignal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`))
	})

	_, err := client.GetVideo(context.Background(), "stale-token", "vid-1")
	assert.True(t, apperrors.IsUnauthorized(err), "got %v", err)
}
