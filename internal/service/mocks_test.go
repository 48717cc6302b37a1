package service

// Hand-rolled mocks for the repository interfaces. Each field lets a test
// define custom behavior; unset fields return the zero-value "not found"
// defaults.

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"converse/internal/cache"
	"converse/internal/model"
)

type mockAuthRepository struct {
	createFn                  func(ctx context.Context, tx *sqlx.Tx, auth *model.Auth) error
	findByIdentityFn          func(ctx context.Context, identity string) (*model.Auth, error)
	findByUserIDFn            func(ctx context.Context, userID int64) (*model.Auth, error)
	existsByUsernameOrEmailFn func(ctx context.Context, username, email string) (bool, error)
}

func (m *mockAuthRepository) Create(ctx context.Context, tx *sqlx.Tx, auth *model.Auth) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, auth)
	}
	return nil
}

func (m *mockAuthRepository) FindByIdentity(ctx context.Context, identity string) (*model.Auth, error) {
	if m.findByIdentityFn != nil {
		return m.findByIdentityFn(ctx, identity)
	}
	return nil, model.ErrAuthNotFound
}

func (m *mockAuthRepository) FindByUserID(ctx context.Context, userID int64) (*model.Auth, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, model.ErrAuthNotFound
}

func (m *mockAuthRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsByUsernameOrEmailFn != nil {
		return m.existsByUsernameOrEmailFn(ctx, username, email)
	}
	return false, nil
}

type mockUserRepository struct {
	createFn     func(ctx context.Context, tx *sqlx.Tx) (int64, error)
	getByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	existsFn     func(ctx context.Context, id int64) (bool, error)
	deleteFn     func(ctx context.Context, userID int64) error
	getSummaryFn func(ctx context.Context, userID int64) (*model.UserSummary, error)

	deleteCalls   []int64
	activityCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx)
	}
	return 1, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateActivityTracking(ctx context.Context, tx *sqlx.Tx, userID int64, ip string) error {
	m.activityCalls++
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID int64) error {
	m.deleteCalls = append(m.deleteCalls, userID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) GetSummary(ctx context.Context, userID int64) (*model.UserSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, userID)
	}
	return nil, model.ErrUserNotFound
}

type mockProfileRepository struct {
	createFn      func(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error
	getByUserIDFn func(ctx context.Context, userID int64) (*model.Profile, error)
	updateFn      func(ctx context.Context, profile *model.Profile) error
}

func (m *mockProfileRepository) Create(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, profile)
	}
	return nil
}

func (m *mockProfileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, profile)
	}
	return nil
}

type mockFollowRepository struct {
	createFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	deleteFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	existsFn         func(ctx context.Context, followerID, followedID int64) (bool, error)
	getFollowersFn   func(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error)
	getFollowingFn   func(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error)
	countFollowersFn func(ctx context.Context, userID int64) (int, error)
	countFollowingFn func(ctx context.Context, userID int64) (int, error)
	checkFollowsFn   func(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error)

	createCalls [][2]int64
}

func (m *mockFollowRepository) Create(ctx context.Context, followerID, followedID int64) (bool, error) {
	m.createCalls = append(m.createCalls, [2]int64{followerID, followedID})
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followedID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followedID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followedID)
	}
	return false, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.UserSummary, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockFollowRepository) CountFollowers(ctx context.Context, userID int64) (int, error) {
	if m.countFollowersFn != nil {
		return m.countFollowersFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockFollowRepository) CountFollowing(ctx context.Context, userID int64) (int, error) {
	if m.countFollowingFn != nil {
		return m.countFollowingFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followedIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followedIDs)
	}
	follows := make(map[int64]bool, len(followedIDs))
	for _, id := range followedIDs {
		follows[id] = false
	}
	return follows, nil
}

type mockPostRepository struct {
	createFn            func(ctx context.Context, userID int64, body string, parentID *int64) (*model.Post, error)
	getByIDFn           func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn          func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	existsFn            func(ctx context.Context, postID int64) (bool, error)
	deleteFn            func(ctx context.Context, postID int64) error
	checkLikesFn        func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	getCommentsFn       func(ctx context.Context, postID int64, cursor *time.Time, limit int) ([]model.Post, error)
	getUserPostsFn      func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	getUserCommentsFn   func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	getLikedPostsFn     func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error)
	getLatestFeedFn     func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, error)
	getTopFeedFn        func(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]model.Post, []int64, error)
	getTopFeedRankingFn func(ctx context.Context, userID int64) ([]cache.RankedPost, error)

	likeFn      func(ctx context.Context, postID, userID int64) error
	unlikeFn    func(ctx context.Context, postID, userID int64) error
	isLikedByFn func(ctx context.Context, postID, userID int64) (bool, error)

	deleteCalls []int64
	likeCalls   int
	unlikeCalls int
}

func (m *mockPostRepository) Create(ctx context.Context, userID int64, body string, parentID *int64) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, body, parentID)
	}
	return &model.Post{ID: 1, Body: body, UserID: userID, ParentID: parentID, CreatedAt: time.Now()}, nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID int64) error {
	m.deleteCalls = append(m.deleteCalls, postID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) Like(ctx context.Context, postID, userID int64) error {
	m.likeCalls++
	if m.likeFn != nil {
		return m.likeFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) Unlike(ctx context.Context, postID, userID int64) error {
	m.unlikeCalls++
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) IsLikedBy(ctx context.Context, postID, userID int64) (bool, error) {
	if m.isLikedByFn != nil {
		return m.isLikedByFn(ctx, postID, userID)
	}
	return false, nil
}

func (m *mockPostRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, postIDs)
	}
	likes := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		likes[id] = false
	}
	return likes, nil
}

func (m *mockPostRepository) GetComments(ctx context.Context, postID int64, cursor *time.Time, limit int) ([]model.Post, error) {
	if m.getCommentsFn != nil {
		return m.getCommentsFn(ctx, postID, cursor, limit)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	if m.getUserPostsFn != nil {
		return m.getUserPostsFn(ctx, userID, cursor, limit)
	}
	return []model.Post{}, 0, nil
}

func (m *mockPostRepository) GetUserComments(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	if m.getUserCommentsFn != nil {
		return m.getUserCommentsFn(ctx, userID, cursor, limit)
	}
	return []model.Post{}, 0, nil
}

func (m *mockPostRepository) GetLikedPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	if m.getLikedPostsFn != nil {
		return m.getLikedPostsFn(ctx, userID, cursor, limit)
	}
	return []model.Post{}, 0, nil
}

func (m *mockPostRepository) GetLatestFeed(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, error) {
	if m.getLatestFeedFn != nil {
		return m.getLatestFeedFn(ctx, userID, cursor, limit)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) GetTopFeed(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]model.Post, []int64, error) {
	if m.getTopFeedFn != nil {
		return m.getTopFeedFn(ctx, userID, cursorSeq, limit)
	}
	return []model.Post{}, []int64{}, nil
}

func (m *mockPostRepository) GetTopFeedRanking(ctx context.Context, userID int64) ([]cache.RankedPost, error) {
	if m.getTopFeedRankingFn != nil {
		return m.getTopFeedRankingFn(ctx, userID)
	}
	return []cache.RankedPost{}, nil
}

type mockTagRepository struct {
	createFn       func(ctx context.Context, name string) (*model.Tag, error)
	getByIDFn      func(ctx context.Context, id int64) (*model.Tag, error)
	listFn         func(ctx context.Context) ([]model.Tag, error)
	isFollowedByFn func(ctx context.Context, tagID, userID int64) (bool, error)

	followCalls   int
	unfollowCalls int
}

func (m *mockTagRepository) Create(ctx context.Context, name string) (*model.Tag, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return &model.Tag{ID: 1, Name: name}, nil
}

func (m *mockTagRepository) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrTagNotFound
}

func (m *mockTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Tag{}, nil
}

func (m *mockTagRepository) IsFollowedBy(ctx context.Context, tagID, userID int64) (bool, error) {
	if m.isFollowedByFn != nil {
		return m.isFollowedByFn(ctx, tagID, userID)
	}
	return false, nil
}

func (m *mockTagRepository) Follow(ctx context.Context, tagID, userID int64) error {
	m.followCalls++
	return nil
}

func (m *mockTagRepository) Unfollow(ctx context.Context, tagID, userID int64) error {
	m.unfollowCalls++
	return nil
}

type mockMessageRepository struct {
	getConversationFn         func(ctx context.Context, userID, otherID int64) (*model.Conversation, error)
	getConversationByIDFn     func(ctx context.Context, conversationID int64) (*model.Conversation, error)
	getOrCreateConversationFn func(ctx context.Context, userID, otherID int64) (*model.Conversation, error)
	createMessageFn           func(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error)
	getByIDFn                 func(ctx context.Context, messageID int64) (*model.Message, error)
	getMessagesFn             func(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error)
	deleteFn                  func(ctx context.Context, messageID int64) error
	deleteForUserFn           func(ctx context.Context, messageID, userID int64) error
	getInboxFn                func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.InboxEntry, error)

	deleteCalls        []int64
	deleteForUserCalls [][2]int64
	lastReadCalls      []time.Time
}

func (m *mockMessageRepository) GetConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
	if m.getConversationFn != nil {
		return m.getConversationFn(ctx, userID, otherID)
	}
	return nil, model.ErrConversationNotFound
}

func (m *mockMessageRepository) GetConversationByID(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	if m.getConversationByIDFn != nil {
		return m.getConversationByIDFn(ctx, conversationID)
	}
	return nil, model.ErrConversationNotFound
}

func (m *mockMessageRepository) GetOrCreateConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
	if m.getOrCreateConversationFn != nil {
		return m.getOrCreateConversationFn(ctx, userID, otherID)
	}
	u1, u2 := userID, otherID
	if u2 < u1 {
		u1, u2 = u2, u1
	}
	return &model.Conversation{ID: 1, User1ID: u1, User2ID: u2}, nil
}

func (m *mockMessageRepository) CreateMessage(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error) {
	if m.createMessageFn != nil {
		return m.createMessageFn(ctx, conversationID, authorID, body)
	}
	return &model.Message{ID: 1, Body: body, AuthorID: authorID, ConversationID: conversationID, CreatedAt: time.Now()}, nil
}

func (m *mockMessageRepository) GetByID(ctx context.Context, messageID int64) (*model.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, messageID)
	}
	return nil, model.ErrMessageNotFound
}

func (m *mockMessageRepository) GetMessages(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error) {
	if m.getMessagesFn != nil {
		return m.getMessagesFn(ctx, conversationID, viewerID, cursor, limit)
	}
	return []model.Message{}, nil
}

func (m *mockMessageRepository) Delete(ctx context.Context, messageID int64) error {
	m.deleteCalls = append(m.deleteCalls, messageID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, messageID)
	}
	return nil
}

func (m *mockMessageRepository) DeleteForUser(ctx context.Context, messageID, userID int64) error {
	m.deleteForUserCalls = append(m.deleteForUserCalls, [2]int64{messageID, userID})
	if m.deleteForUserFn != nil {
		return m.deleteForUserFn(ctx, messageID, userID)
	}
	return nil
}

func (m *mockMessageRepository) UpsertLastRead(ctx context.Context, userID, conversationID int64, ts time.Time) error {
	m.lastReadCalls = append(m.lastReadCalls, ts)
	return nil
}

func (m *mockMessageRepository) GetLastRead(ctx context.Context, userID, conversationID int64) (*time.Time, error) {
	return nil, nil
}

func (m *mockMessageRepository) GetInbox(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.InboxEntry, error) {
	if m.getInboxFn != nil {
		return m.getInboxFn(ctx, userID, cursor, limit)
	}
	return []model.InboxEntry{}, nil
}

// fakeRankCache is an in-memory stand-in for the Redis rank cache.
type fakeRankCache struct {
	rankings  map[int64][]cache.RankedPost
	warmCalls int
	failAll   bool
}

func newFakeRankCache() *fakeRankCache {
	return &fakeRankCache{rankings: make(map[int64][]cache.RankedPost)}
}

var errCacheDown = contextError("cache down")

type contextError string

func (e contextError) Error() string { return string(e) }

func (f *fakeRankCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if f.failAll {
		return false, errCacheDown
	}
	_, ok := f.rankings[userID]
	return ok, nil
}

func (f *fakeRankCache) Warm(ctx context.Context, userID int64, posts []cache.RankedPost) error {
	if f.failAll {
		return errCacheDown
	}
	f.warmCalls++
	stored := make([]cache.RankedPost, len(posts))
	copy(stored, posts)
	f.rankings[userID] = stored
	return nil
}

func (f *fakeRankCache) Page(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]cache.RankedPost, error) {
	if f.failAll {
		return nil, errCacheDown
	}
	ranking := f.rankings[userID]
	sorted := make([]cache.RankedPost, len(ranking))
	copy(sorted, ranking)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence > sorted[j].Sequence })

	page := []cache.RankedPost{}
	for _, r := range sorted {
		if cursorSeq != nil && r.Sequence >= *cursorSeq {
			continue
		}
		page = append(page, r)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeRankCache) Invalidate(ctx context.Context, userID int64) error {
	delete(f.rankings, userID)
	return nil
}
