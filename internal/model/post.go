package model

import (
	"errors"
	"time"
)

// Post is a top-level post when ParentID is nil, otherwise a comment on the
// referenced post. Comments form an arena indexed by id; traversal is a
// lookup on parent_id, never an object back-reference.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	Body      string    `db:"body" json:"body"`
	UserID    int64     `db:"user_id" json:"-"`
	ParentID  *int64    `db:"parent_id" json:"-"`
	CreatedAt time.Time `db:"created_on" json:"created_on"`

	// Joined fields (not columns of posts)
	Likes    int          `db:"likes" json:"likes"`
	Comments int          `db:"comments" json:"comments"`
	IsLiked  bool         `json:"isLiked"`
	Author   *UserSummary `json:"author,omitempty"`
	Parent   *PostSummary `json:"parent,omitempty"`
}

// PostSummary is the compact parent view embedded in comment listings.
type PostSummary struct {
	ID     int64        `json:"id"`
	Body   string       `json:"body"`
	Author *UserSummary `json:"author,omitempty"`
}

// CreatePostRequest is the request body for posts and comments.
type CreatePostRequest struct {
	Body string `json:"body" validate:"required"`
}

// PostPage is the paginated feed/comment response.
type PostPage struct {
	Data       []Post  `json:"data"`
	NextCursor *string `json:"nextCursor"`
}

// PostListPage adds the total count used by the per-user listings.
type PostListPage struct {
	Data       []Post  `json:"data"`
	Total      int     `json:"total"`
	NextCursor *string `json:"nextCursor"`
}

// Feed variants for GET /api/posts.
const (
	FeedLatest = "latest"
	FeedTop    = "top"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("not the owner of this post")
)
