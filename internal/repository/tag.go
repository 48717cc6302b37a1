package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"converse/internal/model"
)

type tagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, name string) (*model.Tag, error) {
	query := `INSERT INTO tags (name) VALUES ($1) RETURNING id`

	tag := model.Tag{Name: name}
	err := r.db.GetContext(ctx, &tag.ID, query, name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, model.ErrTagExists
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.GetContext(ctx, &tag, `SELECT id, name FROM tags WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	err := r.db.SelectContext(ctx, &tags, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) IsFollowedBy(ctx context.Context, tagID, userID int64) (bool, error) {
	var followed bool
	err := r.db.GetContext(ctx, &followed,
		`SELECT EXISTS(SELECT 1 FROM user_tags WHERE user_id = $1 AND tag_id = $2)`, userID, tagID)
	if err != nil {
		return false, fmt.Errorf("failed to check tag follow: %w", err)
	}
	return followed, nil
}

// Follow is idempotent, the same toggle shape as post likes.
func (r *tagRepository) Follow(ctx context.Context, tagID, userID int64) error {
	query := `
		INSERT INTO user_tags (user_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, tag_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tagID); err != nil {
		return fmt.Errorf("failed to follow tag: %w", err)
	}
	return nil
}

func (r *tagRepository) Unfollow(ctx context.Context, tagID, userID int64) error {
	query := `DELETE FROM user_tags WHERE user_id = $1 AND tag_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, tagID); err != nil {
		return fmt.Errorf("failed to unfollow tag: %w", err)
	}
	return nil
}
