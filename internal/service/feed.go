package service

import (
	"context"
	"log"

	"converse/internal/cache"
	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/repository"
)

// FeedService serves the two home feed variants. The base set is the same
// for both: top-level posts by followed users plus the caller's own.
type FeedService interface {
	// Latest pages the base set newest first.
	Latest(ctx context.Context, userID int64, cursor string) (*model.PostPage, error)
	// Top pages the base set most-reacted first. The ranking is served from
	// the rank cache when one is configured, recomputed from SQL on a miss.
	Top(ctx context.Context, userID int64, cursor string) (*model.PostPage, error)
}

type feedService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	rankCache  cache.RankCache
	pageSize   int
}

// NewFeedService creates a FeedService. rankCache may be nil when Redis is
// not configured; the top feed then always ranks in SQL.
func NewFeedService(
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	rankCache cache.RankCache,
	pageSize int,
) FeedService {
	return &feedService{
		postRepo:   postRepo,
		followRepo: followRepo,
		rankCache:  rankCache,
		pageSize:   pageSize,
	}
}

func (s *feedService) Latest(ctx context.Context, userID int64, cursor string) (*model.PostPage, error) {
	after, err := timeCursor(cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.postRepo.GetLatestFeed(ctx, userID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	posts, hasMore := pagination.Trim(rows, s.pageSize)

	if err := enrichPosts(ctx, s.postRepo, s.followRepo, userID, posts); err != nil {
		return nil, err
	}

	page := &model.PostPage{Data: posts}
	if hasMore {
		next := pagination.EncodeTime(posts[len(posts)-1].CreatedAt)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *feedService) Top(ctx context.Context, userID int64, cursor string) (*model.PostPage, error) {
	var after *int64
	if !pagination.IsFirst(cursor) {
		seq, err := pagination.DecodeInt(cursor)
		if err != nil {
			return nil, err
		}
		after = &seq
	}

	posts, seqs, hasMore, err := s.topPage(ctx, userID, after)
	if err != nil {
		return nil, err
	}

	posts, _ = pagination.Trim(posts, s.pageSize)
	seqs, _ = pagination.Trim(seqs, s.pageSize)

	if err := enrichPosts(ctx, s.postRepo, s.followRepo, userID, posts); err != nil {
		return nil, err
	}

	page := &model.PostPage{Data: posts}
	if hasMore && len(seqs) > 0 {
		next := pagination.EncodeInt(seqs[len(seqs)-1])
		page.NextCursor = &next
	}
	return page, nil
}

// topPage fetches one over-fetched window of the ranked feed, preferring the
// cache. Any cache failure falls back to ranking in SQL. hasMore reflects the
// ranked window, not the returned posts: cached entries whose post was
// deleted drop out of the page but must not end pagination early.
func (s *feedService) topPage(ctx context.Context, userID int64, after *int64) ([]model.Post, []int64, bool, error) {
	if s.rankCache == nil {
		return s.topPageSQL(ctx, userID, after)
	}

	exists, err := s.rankCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] Rank cache unavailable for user %d, ranking in SQL: %v", userID, err)
		return s.topPageSQL(ctx, userID, after)
	}

	if !exists {
		ranking, err := s.postRepo.GetTopFeedRanking(ctx, userID)
		if err != nil {
			return nil, nil, false, err
		}
		if err := s.rankCache.Warm(ctx, userID, ranking); err != nil {
			return s.topPageSQL(ctx, userID, after)
		}
	}

	ranked, err := s.rankCache.Page(ctx, userID, after, s.pageSize+1)
	if err != nil {
		log.Printf("[FeedService] Rank cache page failed for user %d, ranking in SQL: %v", userID, err)
		return s.topPageSQL(ctx, userID, after)
	}
	hasMore := len(ranked) > s.pageSize

	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.PostID
	}
	fetched, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, false, err
	}

	// Restore ranking order; posts deleted since the warm drop out.
	byID := make(map[int64]model.Post, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	posts := make([]model.Post, 0, len(ranked))
	seqs := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		if p, ok := byID[r.PostID]; ok {
			posts = append(posts, p)
			seqs = append(seqs, r.Sequence)
		}
	}
	return posts, seqs, hasMore, nil
}

func (s *feedService) topPageSQL(ctx context.Context, userID int64, after *int64) ([]model.Post, []int64, bool, error) {
	posts, seqs, err := s.postRepo.GetTopFeed(ctx, userID, after, s.pageSize+1)
	if err != nil {
		return nil, nil, false, err
	}
	return posts, seqs, len(posts) > s.pageSize, nil
}
