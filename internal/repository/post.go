package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"converse/internal/cache"
	"converse/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postRow is the flat scan target for a hydrated post: the posts columns,
// the reaction counts and the joined author fields.
type postRow struct {
	ID             int64     `db:"id"`
	Body           string    `db:"body"`
	UserID         int64     `db:"user_id"`
	ParentID       *int64    `db:"parent_id"`
	CreatedAt      time.Time `db:"created_on"`
	Likes          int       `db:"likes"`
	Comments       int       `db:"comments"`
	AuthorUsername string    `db:"author_username"`
	AuthorName     string    `db:"author_name"`
	AuthorAvatar   *string   `db:"author_avatar"`
}

func (row *postRow) toPost() model.Post {
	return model.Post{
		ID:        row.ID,
		Body:      row.Body,
		UserID:    row.UserID,
		ParentID:  row.ParentID,
		CreatedAt: row.CreatedAt,
		Likes:     row.Likes,
		Comments:  row.Comments,
		Author: &model.UserSummary{
			ID:       row.UserID,
			Username: row.AuthorUsername,
			Name:     row.AuthorName,
			Avatar:   row.AuthorAvatar,
		},
	}
}

// commentRow extends postRow with the parent post and its author, used by the
// per-user comment listing. Parent columns are nullable because the parent
// post may have been deleted.
type commentRow struct {
	postRow
	ParentBody           *string `db:"parent_body"`
	ParentUserID         *int64  `db:"parent_user_id"`
	ParentAuthorUsername *string `db:"parent_author_username"`
	ParentAuthorName     *string `db:"parent_author_name"`
	ParentAuthorAvatar   *string `db:"parent_author_avatar"`
}

func (row *commentRow) toPost() model.Post {
	post := row.postRow.toPost()
	if row.ParentID != nil && row.ParentBody != nil {
		post.Parent = &model.PostSummary{
			ID:   *row.ParentID,
			Body: *row.ParentBody,
		}
		if row.ParentUserID != nil {
			post.Parent.Author = &model.UserSummary{
				ID:       *row.ParentUserID,
				Username: *row.ParentAuthorUsername,
				Name:     *row.ParentAuthorName,
				Avatar:   row.ParentAuthorAvatar,
			}
		}
	}
	return post
}

// hydratedColumns selects everything postRow scans. Reaction counts are
// correlated subqueries so a post with no likes or comments still appears.
const hydratedColumns = `
	p.id, p.body, p.user_id, p.parent_id, p.created_on,
	(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS likes,
	(SELECT COUNT(*) FROM posts c WHERE c.parent_id = p.id) AS comments,
	a.username AS author_username,
	pr.name AS author_name,
	pr.avatar AS author_avatar
`

const hydratedJoins = `
	JOIN auths a ON a.user_id = p.user_id
	JOIN profiles pr ON pr.user_id = p.user_id
`

// feedBaseSet is the feed membership CTE: top-level posts of followed users
// plus the caller's own top-level posts.
const feedBaseSet = `
	base AS (
		SELECT p2.id
		FROM posts p2
		JOIN follows f ON f.followed_id = p2.user_id
		WHERE f.follower_id = $1 AND p2.parent_id IS NULL
		UNION
		SELECT id FROM posts WHERE user_id = $1 AND parent_id IS NULL
	)
`

// topFeedRanking assigns each base-set post a dense sequence: ascending by
// reaction total (likes + comments) with post id as the tie-break, so the
// highest sequence is the most-reacted post.
const topFeedRanking = feedBaseSet + `,
	ranked AS (
		SELECT b.id,
		       ROW_NUMBER() OVER (ORDER BY
		           (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = b.id) +
		           (SELECT COUNT(*) FROM posts c WHERE c.parent_id = b.id) ASC,
		           b.id ASC) AS sequence
		FROM base b
	)
`

func (r *postRepository) Create(ctx context.Context, userID int64, body string, parentID *int64) (*model.Post, error) {
	query := `
		INSERT INTO posts (body, user_id, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_on
	`

	post := model.Post{Body: body, UserID: userID, ParentID: parentID}
	err := r.db.QueryRowxContext(ctx, query, body, userID, parentID).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + hydratedColumns + ` FROM posts p ` + hydratedJoins + ` WHERE p.id = $1`

	var row postRow
	err := r.db.GetContext(ctx, &row, query, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := row.toPost()
	return &post, nil
}

// GetByIDs returns hydrated posts for the given ids in no particular order;
// missing ids are silently absent. Used to resolve cached ranking pages.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + hydratedColumns + ` FROM posts p ` + hydratedJoins + ` WHERE p.id = ANY($1)`

	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get posts by ids: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, nil
}

func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

// Delete removes exactly one row. Comments referencing it keep their
// parent_id; they surface without a parent in listings from then on.
func (r *postRepository) Delete(ctx context.Context, postID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// Like is idempotent: liking twice leaves a single edge.
func (r *postRepository) Like(ctx context.Context, postID, userID int64) error {
	query := `
		INSERT INTO post_likes (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID int64) error {
	query := `DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	return nil
}

func (r *postRepository) IsLikedBy(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.db.GetContext(ctx, &liked,
		`SELECT EXISTS(SELECT 1 FROM post_likes WHERE user_id = $1 AND post_id = $2)`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

// CheckLikes batch-checks which of postIDs the user has liked.
func (r *postRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	likes := make(map[int64]bool, len(postIDs))
	if len(postIDs) == 0 {
		return likes, nil
	}

	query := `SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)`

	var found []int64
	err := r.db.SelectContext(ctx, &found, query, userID, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}

	for _, id := range postIDs {
		likes[id] = false
	}
	for _, id := range found {
		likes[id] = true
	}
	return likes, nil
}

func (r *postRepository) GetComments(ctx context.Context, postID int64, cursor *time.Time, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + hydratedColumns + `
		FROM posts p ` + hydratedJoins + `
		WHERE p.parent_id = $1
		  AND ($2::timestamptz IS NULL OR p.created_on < $2)
		ORDER BY p.created_on DESC
		LIMIT $3
	`

	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, query, postID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, nil
}

func (r *postRepository) GetUserPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND parent_id IS NULL`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user posts: %w", err)
	}

	query := `
		SELECT ` + hydratedColumns + `
		FROM posts p ` + hydratedJoins + `
		WHERE p.user_id = $1 AND p.parent_id IS NULL
		  AND ($2::timestamptz IS NULL OR p.created_on < $2)
		ORDER BY p.created_on DESC
		LIMIT $3
	`

	var rows []postRow
	err = r.db.SelectContext(ctx, &rows, query, userID, cursor, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, total, nil
}

func (r *postRepository) GetUserComments(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND parent_id IS NOT NULL`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user comments: %w", err)
	}

	query := `
		SELECT ` + hydratedColumns + `,
		       par.body AS parent_body,
		       par.user_id AS parent_user_id,
		       pau.username AS parent_author_username,
		       ppr.name AS parent_author_name,
		       ppr.avatar AS parent_author_avatar
		FROM posts p ` + hydratedJoins + `
		LEFT JOIN posts par ON par.id = p.parent_id
		LEFT JOIN auths pau ON pau.user_id = par.user_id
		LEFT JOIN profiles ppr ON ppr.user_id = par.user_id
		WHERE p.user_id = $1 AND p.parent_id IS NOT NULL
		  AND ($2::timestamptz IS NULL OR p.created_on < $2)
		ORDER BY p.created_on DESC
		LIMIT $3
	`

	var rows []commentRow
	err = r.db.SelectContext(ctx, &rows, query, userID, cursor, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user comments: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, total, nil
}

func (r *postRepository) GetLikedPosts(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM post_likes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count liked posts: %w", err)
	}

	query := `
		SELECT ` + hydratedColumns + `
		FROM post_likes pl2
		JOIN posts p ON p.id = pl2.post_id ` + hydratedJoins + `
		WHERE pl2.user_id = $1
		  AND ($2::timestamptz IS NULL OR p.created_on < $2)
		ORDER BY p.created_on DESC
		LIMIT $3
	`

	var rows []postRow
	err = r.db.SelectContext(ctx, &rows, query, userID, cursor, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get liked posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, total, nil
}

// GetLatestFeed pages the base set newest first.
func (r *postRepository) GetLatestFeed(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.Post, error) {
	query := `
		WITH ` + feedBaseSet + `
		SELECT ` + hydratedColumns + `
		FROM base b
		JOIN posts p ON p.id = b.id ` + hydratedJoins + `
		WHERE ($2::timestamptz IS NULL OR p.created_on < $2)
		ORDER BY p.created_on DESC
		LIMIT $3
	`

	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest feed: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, nil
}

type topFeedRow struct {
	postRow
	Sequence int64 `db:"sequence"`
}

// GetTopFeed pages the base set by ranking sequence descending, so the
// most-reacted post comes first. The returned sequence slice parallels the
// posts and feeds cursor encoding.
func (r *postRepository) GetTopFeed(ctx context.Context, userID int64, cursorSeq *int64, limit int) ([]model.Post, []int64, error) {
	query := `
		WITH ` + topFeedRanking + `
		SELECT ` + hydratedColumns + `, rk.sequence
		FROM ranked rk
		JOIN posts p ON p.id = rk.id ` + hydratedJoins + `
		WHERE ($2::bigint IS NULL OR rk.sequence < $2)
		ORDER BY rk.sequence DESC
		LIMIT $3
	`

	var rows []topFeedRow
	err := r.db.SelectContext(ctx, &rows, query, userID, cursorSeq, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get top feed: %w", err)
	}

	posts := make([]model.Post, len(rows))
	seqs := make([]int64, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
		seqs[i] = rows[i].Sequence
	}
	return posts, seqs, nil
}

// GetTopFeedRanking computes the full ranking for a user, used to warm the
// rank cache on a miss.
func (r *postRepository) GetTopFeedRanking(ctx context.Context, userID int64) ([]cache.RankedPost, error) {
	query := `
		WITH ` + topFeedRanking + `
		SELECT id, sequence FROM ranked ORDER BY sequence DESC
	`

	var rows []struct {
		ID       int64 `db:"id"`
		Sequence int64 `db:"sequence"`
	}
	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top feed ranking: %w", err)
	}

	ranked := make([]cache.RankedPost, len(rows))
	for i, row := range rows {
		ranked[i] = cache.RankedPost{PostID: row.ID, Sequence: row.Sequence}
	}
	return ranked, nil
}
