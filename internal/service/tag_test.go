package service

import (
	"context"
	"errors"
	"testing"

	"converse/internal/model"
)

func TestTagService_ToggleFollow_RoundTrip(t *testing.T) {
	followed := false
	repo := &mockTagRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Tag, error) {
			return &model.Tag{ID: id, Name: "golang"}, nil
		},
		isFollowedByFn: func(ctx context.Context, tagID, userID int64) (bool, error) {
			return followed, nil
		},
	}
	svc := NewTagService(repo)

	tag, err := svc.ToggleFollow(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if tag.IsFollowing == nil || !*tag.IsFollowing {
		t.Error("first toggle should follow the tag")
	}
	followed = true

	// Toggling again returns to the original state.
	tag, err = svc.ToggleFollow(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if tag.IsFollowing == nil || *tag.IsFollowing {
		t.Error("second toggle should unfollow the tag")
	}

	if repo.followCalls != 1 || repo.unfollowCalls != 1 {
		t.Errorf("follow/unfollow calls = %d/%d, want 1/1", repo.followCalls, repo.unfollowCalls)
	}
}

func TestTagService_ToggleFollow_Missing(t *testing.T) {
	svc := NewTagService(&mockTagRepository{})

	_, err := svc.ToggleFollow(context.Background(), 1, 999)
	if !errors.Is(err, model.ErrTagNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrTagNotFound)
	}
}
