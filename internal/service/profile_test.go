package service

import (
	"context"
	"errors"
	"testing"

	"converse/internal/model"
)

func TestProfileService_GetByUsername(t *testing.T) {
	profileRepo := &mockProfileRepository{
		getByUserIDFn: func(ctx context.Context, userID int64) (*model.Profile, error) {
			return &model.Profile{Name: "Bob", UserID: userID}, nil
		},
	}
	followRepo := &mockFollowRepository{
		countFollowersFn: func(ctx context.Context, userID int64) (int, error) { return 3, nil },
		countFollowingFn: func(ctx context.Context, userID int64) (int, error) { return 5, nil },
		existsFn: func(ctx context.Context, followerID, followedID int64) (bool, error) {
			return true, nil
		},
	}
	svc := NewProfileService(authFor(2, "bob"), &mockUserRepository{}, profileRepo, followRepo)

	t.Run("other viewer gets isFollowing", func(t *testing.T) {
		resp, err := svc.GetByUsername(context.Background(), "bob", 1)
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		if resp.Followers != 3 || resp.Following != 5 {
			t.Errorf("counts = %d/%d, want 3/5", resp.Followers, resp.Following)
		}
		if resp.IsFollowing == nil || !*resp.IsFollowing {
			t.Error("isFollowing should be true for a following viewer")
		}
	})

	t.Run("own profile has nil isFollowing", func(t *testing.T) {
		resp, err := svc.GetByUsername(context.Background(), "bob", 2)
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		if resp.IsFollowing != nil {
			t.Error("own profile should have nil isFollowing")
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.GetByUsername(context.Background(), "ghost", 1)
		if !errors.Is(err, model.ErrUserNotFound) {
			t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
		}
	})
}

func TestProfileService_DeleteAccount(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := NewProfileService(&mockAuthRepository{}, userRepo, &mockProfileRepository{}, &mockFollowRepository{})

	if err := svc.DeleteAccount(context.Background(), 7); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if len(userRepo.deleteCalls) != 1 || userRepo.deleteCalls[0] != 7 {
		t.Errorf("delete calls = %v, want [7]", userRepo.deleteCalls)
	}
}

func TestGravatarURL(t *testing.T) {
	// Case-insensitive on the email, fixed size parameter.
	a := model.GravatarURL("Alice@Example.com", 80)
	b := model.GravatarURL("alice@example.com", 80)
	if a != b {
		t.Error("gravatar url should be case-insensitive on email")
	}
	if a == model.GravatarURL("bob@example.com", 80) {
		t.Error("different emails should produce different urls")
	}
}
