package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"converse/internal/model"
)

// authRepository implements AuthRepository using sqlx
type authRepository struct {
	db *sqlx.DB
}

// NewAuthRepository creates a new credential repository
func NewAuthRepository(db *sqlx.DB) AuthRepository {
	return &authRepository{db: db}
}

// Create inserts the credential record inside the registration transaction.
func (r *authRepository) Create(ctx context.Context, tx *sqlx.Tx, auth *model.Auth) error {
	query := `
		INSERT INTO auths (username, email, password, is_active, is_admin, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := tx.GetContext(ctx, &auth.ID, query,
		auth.Username,
		auth.Email,
		auth.PasswordHashed,
		auth.IsActive,
		auth.IsAdmin,
		auth.UserID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert auth: %w", err)
	}

	return nil
}

// FindByIdentity matches a username or an email. Uniqueness of both columns
// guarantees at most one row.
func (r *authRepository) FindByIdentity(ctx context.Context, identity string) (*model.Auth, error) {
	query := `
		SELECT id, username, email, password, is_active, is_admin, user_id
		FROM auths
		WHERE username = $1 OR email = $1
	`

	var a model.Auth
	err := r.db.GetContext(ctx, &a, query, identity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrAuthNotFound
		}
		return nil, fmt.Errorf("failed to find auth by identity: %w", err)
	}

	return &a, nil
}

func (r *authRepository) FindByUserID(ctx context.Context, userID int64) (*model.Auth, error) {
	query := `
		SELECT id, username, email, password, is_active, is_admin, user_id
		FROM auths
		WHERE user_id = $1
	`

	var a model.Auth
	err := r.db.GetContext(ctx, &a, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrAuthNotFound
		}
		return nil, fmt.Errorf("failed to find auth by user id: %w", err)
	}

	return &a, nil
}

func (r *authRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM auths WHERE username = $1 OR email = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username, email)
	if err != nil {
		return false, fmt.Errorf("failed to check auth existence: %w", err)
	}

	return exists, nil
}
