package model

import "errors"

// Auth is the credential record for a user. Exactly one exists per user and
// it is deleted together with the user.
type Auth struct {
	ID             int64  `db:"id" json:"id"`
	Username       string `db:"username" json:"username"`
	Email          string `db:"email" json:"email"`
	PasswordHashed string `db:"password" json:"-"`
	IsActive       bool   `db:"is_active" json:"-"`
	IsAdmin        bool   `db:"is_admin" json:"-"`
	UserID         int64  `db:"user_id" json:"-"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email,max=128"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=128"`
}

// LoginRequest carries a username OR email plus the password.
type LoginRequest struct {
	Identity string `json:"identity" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the body returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
}

// CurrentUserResponse is the body of GET /api/auth/user: the authenticated
// user's own identity and display attributes.
type CurrentUserResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
}

var (
	// ErrAuthNotFound is returned when no credential record matches
	ErrAuthNotFound = errors.New("auth not found")

	// ErrUserExists is returned when username or email is already taken
	ErrUserExists = errors.New("that user already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired is returned when an auth token has expired
	ErrTokenExpired = errors.New("signature expired")

	// ErrTokenInvalid is returned when an auth token fails verification
	ErrTokenInvalid = errors.New("invalid token")
)
