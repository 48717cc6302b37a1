package service

import (
	"context"

	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/repository"
)

// FollowService manages the follow graph and its paginated listings.
type FollowService interface {
	// Follow creates the edge and returns the followed user's summary.
	// Following someone you already follow is a no-op; following yourself
	// is rejected.
	Follow(ctx context.Context, followerID, followedID int64) (*model.UserSummary, error)
	Unfollow(ctx context.Context, followerID, followedID int64) (*model.UserSummary, error)
	Followers(ctx context.Context, username string, viewerID int64, cursor string) (*model.UserListPage, error)
	Following(ctx context.Context, username string, viewerID int64, cursor string) (*model.UserListPage, error)
}

type followService struct {
	authRepo   repository.AuthRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	pageSize   int
}

func NewFollowService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	pageSize int,
) FollowService {
	return &followService{
		authRepo:   authRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		pageSize:   pageSize,
	}
}

func (s *followService) Follow(ctx context.Context, followerID, followedID int64) (*model.UserSummary, error) {
	return s.setEdge(ctx, followerID, followedID, true)
}

func (s *followService) Unfollow(ctx context.Context, followerID, followedID int64) (*model.UserSummary, error) {
	return s.setEdge(ctx, followerID, followedID, false)
}

func (s *followService) setEdge(ctx context.Context, followerID, followedID int64, follow bool) (*model.UserSummary, error) {
	if followedID == followerID {
		return nil, model.ErrCannotFollowSelf
	}

	target, err := s.userRepo.GetSummary(ctx, followedID)
	if err != nil {
		return nil, err
	}

	if follow {
		_, err = s.followRepo.Create(ctx, followerID, followedID)
	} else {
		_, err = s.followRepo.Delete(ctx, followerID, followedID)
	}
	if err != nil {
		return nil, err
	}

	target.IsFollowing = &follow
	return target, nil
}

func (s *followService) Followers(ctx context.Context, username string, viewerID int64, cursor string) (*model.UserListPage, error) {
	return s.listGraph(ctx, username, viewerID, cursor,
		s.followRepo.GetFollowers, s.followRepo.CountFollowers)
}

func (s *followService) Following(ctx context.Context, username string, viewerID int64, cursor string) (*model.UserListPage, error) {
	return s.listGraph(ctx, username, viewerID, cursor,
		s.followRepo.GetFollowing, s.followRepo.CountFollowing)
}

func (s *followService) listGraph(
	ctx context.Context,
	username string,
	viewerID int64,
	cursor string,
	fetch func(context.Context, int64, *int64, int) ([]model.UserSummary, error),
	count func(context.Context, int64) (int, error),
) (*model.UserListPage, error) {
	target, err := resolveUsername(ctx, s.authRepo, username)
	if err != nil {
		return nil, err
	}

	var after *int64
	if !pagination.IsFirst(cursor) {
		id, err := pagination.DecodeInt(cursor)
		if err != nil {
			return nil, err
		}
		after = &id
	}

	rows, err := fetch(ctx, target.UserID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	users, hasMore := pagination.Trim(rows, s.pageSize)

	if err := enrichUserFollows(ctx, s.followRepo, viewerID, users); err != nil {
		return nil, err
	}

	total, err := count(ctx, target.UserID)
	if err != nil {
		return nil, err
	}

	page := &model.UserListPage{Data: users, Total: total}
	if hasMore {
		next := pagination.EncodeInt(users[len(users)-1].ID)
		page.NextCursor = &next
	}
	return page, nil
}

// enrichUserFollows fills IsFollowing for every listed user relative to the
// viewer with one batch query. The viewer's own row keeps a nil flag.
func enrichUserFollows(ctx context.Context, followRepo repository.FollowRepository, viewerID int64, users []model.UserSummary) error {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		if u.ID != viewerID {
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	follows, err := followRepo.CheckFollows(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].ID == viewerID {
			continue
		}
		isFollowing := follows[users[i].ID]
		users[i].IsFollowing = &isFollowing
	}
	return nil
}
