package service

import (
	"context"
	"errors"
	"log"

	"converse/internal/model"
	"converse/internal/repository"
)

// ProfileService serves public profile views and owner-only profile edits.
type ProfileService interface {
	// GetByUsername returns the public profile with graph counts.
	// IsFollowing is nil when the viewer looks at their own profile.
	GetByUsername(ctx context.Context, username string, viewerID int64) (*model.ProfileResponse, error)
	Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error)
	// DeleteAccount removes the whole user aggregate.
	DeleteAccount(ctx context.Context, userID int64) error
}

type profileService struct {
	authRepo    repository.AuthRepository
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	followRepo  repository.FollowRepository
}

func NewProfileService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	followRepo repository.FollowRepository,
) ProfileService {
	return &profileService{
		authRepo:    authRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		followRepo:  followRepo,
	}
}

// resolveUsername maps a path username to its credential record, translating
// a miss into the user-facing not-found error.
func resolveUsername(ctx context.Context, authRepo repository.AuthRepository, username string) (*model.Auth, error) {
	auth, err := authRepo.FindByIdentity(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAuthNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return auth, nil
}

func (s *profileService) GetByUsername(ctx context.Context, username string, viewerID int64) (*model.ProfileResponse, error) {
	auth, err := resolveUsername(ctx, s.authRepo, username)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByUserID(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.CountFollowers(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}

	resp := &model.ProfileResponse{
		ID:        auth.UserID,
		Username:  auth.Username,
		Profile:   *profile,
		Followers: followers,
		Following: following,
	}

	if viewerID != auth.UserID {
		isFollowing, err := s.followRepo.Exists(ctx, viewerID, auth.UserID)
		if err != nil {
			return nil, err
		}
		resp.IsFollowing = &isFollowing
	}

	return resp, nil
}

func (s *profileService) Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Name = req.Name
	profile.DOB = req.DOB
	profile.Bio = req.Bio

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	log.Printf("[ProfileService] Deleted account %d", userID)
	return nil
}
