package service

import (
	"context"

	"converse/internal/model"
	"converse/internal/repository"
)

// TagService manages followable topics.
type TagService interface {
	Create(ctx context.Context, req *model.CreateTagRequest) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	// ToggleFollow adds the user-tag edge if absent, removes it otherwise,
	// and returns the tag with its fresh follow state.
	ToggleFollow(ctx context.Context, userID, tagID int64) (*model.Tag, error)
}

type tagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) Create(ctx context.Context, req *model.CreateTagRequest) (*model.Tag, error) {
	return s.tagRepo.Create(ctx, req.Name)
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tagRepo.List(ctx)
}

func (s *tagService) ToggleFollow(ctx context.Context, userID, tagID int64) (*model.Tag, error) {
	tag, err := s.tagRepo.GetByID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	followed, err := s.tagRepo.IsFollowedBy(ctx, tagID, userID)
	if err != nil {
		return nil, err
	}

	if followed {
		err = s.tagRepo.Unfollow(ctx, tagID, userID)
	} else {
		err = s.tagRepo.Follow(ctx, tagID, userID)
	}
	if err != nil {
		return nil, err
	}

	following := !followed
	tag.IsFollowing = &following
	return tag, nil
}
