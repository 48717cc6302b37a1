package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"converse/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the root user row inside the registration transaction and
// returns its id.
func (r *userRepository) Create(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO users (created_on, updated_on) VALUES (NOW(), NOW())
		RETURNING id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, sign_in_count, current_sign_in_on, current_sign_in_ip,
		       last_sign_in_on, last_sign_in_ip, created_on, updated_on
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// UpdateActivityTracking rotates the sign-in metadata: the previous current
// values become the last values before the new sign-in is recorded.
func (r *userRepository) UpdateActivityTracking(ctx context.Context, tx *sqlx.Tx, userID int64, ip string) error {
	query := `
		UPDATE users
		SET sign_in_count      = sign_in_count + 1,
		    last_sign_in_on    = current_sign_in_on,
		    last_sign_in_ip    = current_sign_in_ip,
		    current_sign_in_on = NOW(),
		    current_sign_in_ip = $1,
		    updated_on         = NOW()
		WHERE id = $2
	`
	result, err := tx.ExecContext(ctx, query, ip, userID)
	if err != nil {
		return fmt.Errorf("failed to update activity tracking: %w", err)
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

// Delete removes the user aggregate. Identity, profile, posts, social edges
// and conversations go with it via ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

func (r *userRepository) GetSummary(ctx context.Context, userID int64) (*model.UserSummary, error) {
	query := `
		SELECT u.id, a.username, p.name, p.avatar
		FROM users u
		JOIN auths a ON a.user_id = u.id
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`

	var s model.UserSummary
	err := r.db.GetContext(ctx, &s, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}

	return &s, nil
}
