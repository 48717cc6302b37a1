package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"converse/internal/model"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts the profile inside the registration transaction.
func (r *profileRepository) Create(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (name, avatar, dob, bio, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := tx.GetContext(ctx, &profile.ID, query,
		profile.Name,
		profile.Avatar,
		profile.DOB,
		profile.Bio,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `
		SELECT id, name, avatar, dob, bio, user_id
		FROM profiles
		WHERE user_id = $1
	`

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET name = $1, dob = $2, bio = $3
		WHERE user_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, profile.Name, profile.DOB, profile.Bio, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
