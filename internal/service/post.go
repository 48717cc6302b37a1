package service

import (
	"context"
	"log"
	"time"

	"converse/internal/cache"
	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/repository"
)

// PostService manages posts, comments and likes.
type PostService interface {
	CreatePost(ctx context.Context, userID int64, req *model.CreatePostRequest) (*model.Post, error)
	// CreateComment attaches a comment to an existing post.
	CreateComment(ctx context.Context, userID, parentID int64, req *model.CreatePostRequest) (*model.Post, error)
	Get(ctx context.Context, postID, viewerID int64) (*model.Post, error)
	// Delete removes the caller's own post; its comments survive.
	Delete(ctx context.Context, userID, postID int64) error
	// ToggleLike adds the like edge if absent, removes it otherwise, and
	// returns the post with its fresh like state.
	ToggleLike(ctx context.Context, userID, postID int64) (*model.Post, error)
	Comments(ctx context.Context, postID, viewerID int64, cursor string) (*model.PostPage, error)
	UserPosts(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error)
	UserComments(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error)
	LikedPosts(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error)
}

type postService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	authRepo   repository.AuthRepository
	rankCache  cache.RankCache
	pageSize   int
}

// NewPostService creates a PostService. rankCache may be nil when Redis is
// not configured.
func NewPostService(
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	authRepo repository.AuthRepository,
	rankCache cache.RankCache,
	pageSize int,
) PostService {
	return &postService{
		postRepo:   postRepo,
		followRepo: followRepo,
		authRepo:   authRepo,
		rankCache:  rankCache,
		pageSize:   pageSize,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, req *model.CreatePostRequest) (*model.Post, error) {
	created, err := s.postRepo.Create(ctx, userID, req.Body, nil)
	if err != nil {
		return nil, err
	}

	s.invalidateRank(ctx, userID)
	return s.Get(ctx, created.ID, userID)
}

func (s *postService) CreateComment(ctx context.Context, userID, parentID int64, req *model.CreatePostRequest) (*model.Post, error) {
	exists, err := s.postRepo.Exists(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	created, err := s.postRepo.Create(ctx, userID, req.Body, &parentID)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, created.ID, userID)
}

func (s *postService) Get(ctx context.Context, postID, viewerID int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	posts := []model.Post{*post}
	if err := s.enrich(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *postService) Delete(ctx context.Context, userID, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return model.ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.invalidateRank(ctx, userID)
	log.Printf("[PostService] User %d deleted post %d", userID, postID)
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID int64) (*model.Post, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	liked, err := s.postRepo.IsLikedBy(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = s.postRepo.Unlike(ctx, postID, userID)
	} else {
		err = s.postRepo.Like(ctx, postID, userID)
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, postID, userID)
}

func (s *postService) Comments(ctx context.Context, postID, viewerID int64, cursor string) (*model.PostPage, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	after, err := timeCursor(cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.postRepo.GetComments(ctx, postID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	posts, hasMore := pagination.Trim(rows, s.pageSize)

	if err := s.enrich(ctx, viewerID, posts); err != nil {
		return nil, err
	}

	page := &model.PostPage{Data: posts}
	if hasMore {
		next := pagination.EncodeTime(posts[len(posts)-1].CreatedAt)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *postService) UserPosts(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error) {
	return s.listUser(ctx, username, viewerID, cursor, s.postRepo.GetUserPosts)
}

func (s *postService) UserComments(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error) {
	return s.listUser(ctx, username, viewerID, cursor, s.postRepo.GetUserComments)
}

func (s *postService) LikedPosts(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error) {
	return s.listUser(ctx, username, viewerID, cursor, s.postRepo.GetLikedPosts)
}

func (s *postService) listUser(
	ctx context.Context,
	username string,
	viewerID int64,
	cursor string,
	fetch func(context.Context, int64, *time.Time, int) ([]model.Post, int, error),
) (*model.PostListPage, error) {
	target, err := resolveUsername(ctx, s.authRepo, username)
	if err != nil {
		return nil, err
	}

	after, err := timeCursor(cursor)
	if err != nil {
		return nil, err
	}

	rows, total, err := fetch(ctx, target.UserID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	posts, hasMore := pagination.Trim(rows, s.pageSize)

	if err := s.enrich(ctx, viewerID, posts); err != nil {
		return nil, err
	}

	page := &model.PostListPage{Data: posts, Total: total}
	if hasMore {
		next := pagination.EncodeTime(posts[len(posts)-1].CreatedAt)
		page.NextCursor = &next
	}
	return page, nil
}

// enrich fills the viewer-relative fields (IsLiked, author IsFollowing) for
// a page of posts with two batch queries.
func (s *postService) enrich(ctx context.Context, viewerID int64, posts []model.Post) error {
	return enrichPosts(ctx, s.postRepo, s.followRepo, viewerID, posts)
}

// invalidateRank drops the author's cached top-feed ranking after a content
// change. Follower caches expire on their own TTL.
func (s *postService) invalidateRank(ctx context.Context, userID int64) {
	if s.rankCache == nil {
		return
	}
	if err := s.rankCache.Invalidate(ctx, userID); err != nil {
		log.Printf("[PostService] Rank cache invalidation failed for user %d: %v", userID, err)
	}
}

// timeCursor decodes an optional timestamp cursor.
func timeCursor(cursor string) (*time.Time, error) {
	if pagination.IsFirst(cursor) {
		return nil, nil
	}
	t, err := pagination.DecodeTime(cursor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func enrichPosts(ctx context.Context, postRepo repository.PostRepository, followRepo repository.FollowRepository, viewerID int64, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	authorSet := make(map[int64]struct{})
	for i, p := range posts {
		postIDs[i] = p.ID
		if p.Author != nil && p.Author.ID != viewerID {
			authorSet[p.Author.ID] = struct{}{}
		}
	}

	likes, err := postRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		return err
	}

	authorIDs := make([]int64, 0, len(authorSet))
	for id := range authorSet {
		authorIDs = append(authorIDs, id)
	}
	follows, err := followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		return err
	}

	for i := range posts {
		posts[i].IsLiked = likes[posts[i].ID]
		if posts[i].Author != nil && posts[i].Author.ID != viewerID {
			isFollowing := follows[posts[i].Author.ID]
			posts[i].Author.IsFollowing = &isFollowing
		}
	}
	return nil
}
