package model

import (
	"errors"
	"time"
)

// User is the root aggregate. Its lifecycle governs cascading deletion of the
// credential record, profile, posts, social edges and conversations.
type User struct {
	ID              int64      `db:"id" json:"id"`
	SignInCount     int        `db:"sign_in_count" json:"-"`
	CurrentSignInOn *time.Time `db:"current_sign_in_on" json:"-"`
	CurrentSignInIP *string    `db:"current_sign_in_ip" json:"-"`
	LastSignInOn    *time.Time `db:"last_sign_in_on" json:"-"`
	LastSignInIP    *string    `db:"last_sign_in_ip" json:"-"`
	CreatedAt       time.Time  `db:"created_on" json:"created_on"`
	UpdatedAt       time.Time  `db:"updated_on" json:"-"`
}

// UserSummary is the compact identity+profile view embedded in posts,
// follower lists and the inbox. IsFollowing is nil when the viewer is the
// user themselves.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	Name        string  `db:"name" json:"name"`
	Avatar      *string `db:"avatar" json:"avatar"`
	IsFollowing *bool   `json:"isFollowing,omitempty"`
}

// UserListPage is the paginated follower/following response.
type UserListPage struct {
	Data       []UserSummary `json:"data"`
	Total      int           `json:"total"`
	NextCursor *string       `json:"nextCursor"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrCannotFollowSelf is returned on a self-follow attempt
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
