package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"converse/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the follow edge. ON CONFLICT DO NOTHING makes a repeated
// follow a no-op; the return value reports whether a new edge appeared.
func (r *followRepository) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`
	result, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// GetFollowers pages users following userID, newest account first (user id
// descending). A non-nil cursor restricts to ids strictly below it.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, a.username, p.name, p.avatar
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		JOIN auths a ON a.user_id = u.id
		JOIN profiles p ON p.user_id = u.id
		WHERE f.followed_id = $1
		  AND ($2::bigint IS NULL OR u.id < $2)
		ORDER BY u.id DESC
		LIMIT $3
	`

	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

func (r *followRepository) GetFollowing(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error) {
	query := `
		SELECT u.id, a.username, p.name, p.avatar
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		JOIN auths a ON a.user_id = u.id
		JOIN profiles p ON p.user_id = u.id
		WHERE f.follower_id = $1
		  AND ($2::bigint IS NULL OR u.id < $2)
		ORDER BY u.id DESC
		LIMIT $3
	`

	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}

// CheckFollows batch-checks which of followedIDs the follower follows,
// avoiding one query per listed user.
func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error) {
	follows := make(map[int64]bool, len(followedIDs))
	if len(followedIDs) == 0 {
		return follows, nil
	}

	query := `
		SELECT followed_id
		FROM follows
		WHERE follower_id = $1 AND followed_id = ANY($2)
	`

	var found []int64
	err := r.db.SelectContext(ctx, &found, query, followerID, pq.Array(followedIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	for _, id := range followedIDs {
		follows[id] = false
	}
	for _, id := range found {
		follows[id] = true
	}
	return follows, nil
}
