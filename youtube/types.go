package youtube

import "time"

// Video is the dashboard view of a video resource: editable snippet fields
// plus read-only statistics.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CategoryID   string `json:"category_id"`
	ChannelID    string `json:"channel_id,omitempty"`
	ViewCount    string `json:"view_count,omitempty"`
	LikeCount    string `json:"like_count,omitempty"`
	CommentCount string `json:"comment_count,omitempty"`
}

// Comment is a single comment, either top-level or a reply.
type Comment struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	LikeCount   int64     `json:"like_count"`
	PublishedAt time.Time `json:"published_at"`
}

// CommentThread is a top-level comment with its replies.
type CommentThread struct {
	ID              string    `json:"id"`
	TopLevelComment Comment   `json:"top_level_comment"`
	TotalReplyCount int64     `json:"total_reply_count"`
	Replies         []Comment `json:"replies,omitempty"`
}

// VideoUpdate carries the editable snippet fields for a videos.update call.
// CategoryID is mandatory on the wire; callers fill it from the fetched video.
type VideoUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
}
