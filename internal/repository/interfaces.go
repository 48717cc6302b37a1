package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"converse/internal/cache"
	"converse/internal/model"
)

type AuthRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, auth *model.Auth) error
	// FindByIdentity matches the identity against username OR email.
	// Uniqueness constraints guarantee at most one row.
	FindByIdentity(ctx context.Context, identity string) (*model.Auth, error)
	FindByUserID(ctx context.Context, userID int64) (*model.Auth, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// UpdateActivityTracking increments the sign-in counter and rotates the
	// current/last sign-in timestamp and IP.
	UpdateActivityTracking(ctx context.Context, tx *sqlx.Tx, userID int64, ip string) error
	Delete(ctx context.Context, userID int64) error
	GetSummary(ctx context.Context, userID int64) (*model.UserSummary, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
}

type FollowRepository interface {
	// Create inserts the edge if absent; reports whether a row was inserted.
	Create(ctx context.Context, followerID, followedID int64) (bool, error)
	// Delete removes the edge if present; reports whether a row was removed.
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	// GetFollowers pages users following userID, ordered by user id DESC.
	GetFollowers(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
	// CheckFollows batch-checks which of followedIDs the follower follows.
	CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, body string, parentID *int64) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	// Delete removes exactly the given row; child comments stay in place.
	Delete(ctx context.Context, postID int64) error
	// Like inserts the like edge if absent; Unlike removes it if present.
	// Both are idempotent single-statement operations.
	Like(ctx context.Context, postID, userID int64) error
	Unlike(ctx context.Context, postID, userID int64) error
	IsLikedBy(ctx context.Context, postID, userID int64) (bool, error)
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	GetComments(ctx context.Context, postID int64, cursor *time.Time, limit int) ([]model.Post, error)
	GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	GetUserComments(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	GetLikedPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	// GetLatestFeed pages the feed base set (followed users' top-level posts
	// union own top-level posts) by created_on DESC.
	GetLatestFeed(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, error)
	// GetTopFeed pages the same base set by ranking sequence DESC. The
	// returned sequences parallel the posts.
	GetTopFeed(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]model.Post, []int64, error)
	// GetTopFeedRanking computes the full ranking for cache warming.
	GetTopFeedRanking(ctx context.Context, userID int64) ([]cache.RankedPost, error)
}

type TagRepository interface {
	Create(ctx context.Context, name string) (*model.Tag, error)
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	IsFollowedBy(ctx context.Context, tagID, userID int64) (bool, error)
	Follow(ctx context.Context, tagID, userID int64) error
	Unfollow(ctx context.Context, tagID, userID int64) error
}

type MessageRepository interface {
	// GetConversation looks the pair up regardless of slot order.
	GetConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error)
	GetConversationByID(ctx context.Context, conversationID int64) (*model.Conversation, error)
	// GetOrCreateConversation creates the conversation with the lower user
	// id in slot 1; a concurrent duplicate insert is absorbed by re-reading
	// after ON CONFLICT DO NOTHING.
	GetOrCreateConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error)
	CreateMessage(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error)
	GetByID(ctx context.Context, messageID int64) (*model.Message, error)
	// GetMessages pages the conversation history by created_on DESC,
	// excluding messages the viewer has deleted for themselves.
	GetMessages(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error)
	Delete(ctx context.Context, messageID int64) error
	// DeleteForUser hides the message from one participant only. Idempotent.
	DeleteForUser(ctx context.Context, messageID, userID int64) error
	// UpsertLastRead moves the read-marker forward; it never goes backwards.
	UpsertLastRead(ctx context.Context, userID, conversationID int64, ts time.Time) error
	GetLastRead(ctx context.Context, userID, conversationID int64) (*time.Time, error)
	// GetInbox pages the newest visible message per conversation involving
	// userID, joined with the other participant and the read-marker state.
	GetInbox(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.InboxEntry, error)
}
