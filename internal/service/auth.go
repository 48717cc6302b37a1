package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"converse/internal/model"
	"converse/internal/repository"
)

// AuthService handles registration, login and token verification.
type AuthService interface {
	// Register creates the user, credential and profile records atomically
	// and returns a signed auth token.
	Register(ctx context.Context, req *model.RegisterRequest) (string, error)

	// Login verifies the credentials, records the sign-in and returns a
	// signed auth token.
	Login(ctx context.Context, req *model.LoginRequest, ip string) (string, error)

	// Authenticate verifies a token and resolves it to an active user id.
	// Returns model.ErrTokenExpired, model.ErrTokenInvalid or
	// model.ErrAuthNotFound on failure.
	Authenticate(ctx context.Context, token string) (int64, error)

	CurrentUser(ctx context.Context, userID int64) (*model.CurrentUserResponse, error)
}

type authService struct {
	db          *sqlx.DB
	authRepo    repository.AuthRepository
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	secret      []byte
	maxAge      time.Duration
}

func NewAuthService(
	db *sqlx.DB,
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	secret string,
	maxAgeSeconds int,
) AuthService {
	return &authService{
		db:          db,
		authRepo:    authRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		secret:      []byte(secret),
		maxAge:      time.Duration(maxAgeSeconds) * time.Second,
	}
}

func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (string, error) {
	exists, err := s.authRepo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return "", model.ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := s.userRepo.Create(ctx, tx)
	if err != nil {
		return "", err
	}

	auth := &model.Auth{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHashed: string(hashed),
		IsActive:       true,
		UserID:         userID,
	}
	if err := s.authRepo.Create(ctx, tx, auth); err != nil {
		return "", err
	}

	avatar := model.GravatarURL(req.Email, 80)
	profile := &model.Profile{
		Name:   req.Name,
		Avatar: &avatar,
		UserID: userID,
	}
	if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit registration: %w", err)
	}

	log.Printf("[AuthService] Registered user %d (%s)", userID, req.Username)
	return s.issueToken(userID)
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest, ip string) (string, error) {
	auth, err := s.authRepo.FindByIdentity(ctx, req.Identity)
	if err != nil {
		if errors.Is(err, model.ErrAuthNotFound) {
			return "", model.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHashed), []byte(req.Password)); err != nil {
		return "", model.ErrInvalidCredentials
	}
	if !auth.IsActive {
		return "", model.ErrInvalidCredentials
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.UpdateActivityTracking(ctx, tx, auth.UserID, ip); err != nil {
		return "", err
	}

	// Sign before committing so a signing failure leaves the sign-in
	// counters untouched.
	token, err := s.issueToken(auth.UserID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit sign-in tracking: %w", err)
	}

	log.Printf("[AuthService] User %d signed in", auth.UserID)
	return token, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (int64, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, model.ErrTokenExpired
		}
		return 0, model.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, model.ErrTokenInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, model.ErrTokenInvalid
	}
	userID := int64(sub)

	auth, err := s.authRepo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !auth.IsActive {
		return 0, model.ErrAuthNotFound
	}

	return userID, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID int64) (*model.CurrentUserResponse, error) {
	auth, err := s.authRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.CurrentUserResponse{
		ID:       userID,
		Username: auth.Username,
		Email:    auth.Email,
		Name:     profile.Name,
		Avatar:   profile.Avatar,
	}, nil
}

func (s *authService) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.maxAge).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
