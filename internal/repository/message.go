package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"converse/internal/model"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// pairSlots normalizes the unordered pair: the lower id always sits in slot 1.
func pairSlots(userID, otherID int64) (int64, int64) {
	if userID < otherID {
		return userID, otherID
	}
	return otherID, userID
}

func (r *messageRepository) GetConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
	u1, u2 := pairSlots(userID, otherID)

	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id FROM conversations WHERE user1_id = $1 AND user2_id = $2`, u1, u2)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (r *messageRepository) GetConversationByID(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id FROM conversations WHERE id = $1`, conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation by id: %w", err)
	}
	return &conv, nil
}

// GetOrCreateConversation is safe under concurrent first messages: both
// writers target the same (user1_id, user2_id) row, the loser's insert hits
// ON CONFLICT DO NOTHING and the follow-up read returns the winner's row.
func (r *messageRepository) GetOrCreateConversation(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
	u1, u2 := pairSlots(userID, otherID)

	query := `
		INSERT INTO conversations (user1_id, user2_id)
		VALUES ($1, $2)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, u1, u2); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return r.GetConversation(ctx, userID, otherID)
}

func (r *messageRepository) CreateMessage(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error) {
	query := `
		INSERT INTO messages (body, author_id, conversation_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_on
	`

	msg := model.Message{Body: body, AuthorID: authorID, ConversationID: conversationID}
	err := r.db.QueryRowxContext(ctx, query, body, authorID, conversationID).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &msg, nil
}

func (r *messageRepository) GetByID(ctx context.Context, messageID int64) (*model.Message, error) {
	query := `
		SELECT id, body, author_id, conversation_id, created_on
		FROM messages
		WHERE id = $1
	`

	var msg model.Message
	err := r.db.GetContext(ctx, &msg, query, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// GetMessages pages the history newest first, skipping messages the viewer
// has deleted for themselves. The other participant still sees them.
func (r *messageRepository) GetMessages(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error) {
	query := `
		SELECT m.id, m.body, m.author_id, m.conversation_id, m.created_on
		FROM messages m
		WHERE m.conversation_id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM deleted_messages dm
		      WHERE dm.message_id = m.id AND dm.user_id = $2
		  )
		  AND ($3::timestamptz IS NULL OR m.created_on < $3)
		ORDER BY m.created_on DESC
		LIMIT $4
	`

	messages := []model.Message{}
	err := r.db.SelectContext(ctx, &messages, query, conversationID, viewerID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) Delete(ctx context.Context, messageID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMessageNotFound
	}
	return nil
}

// DeleteForUser hides the message from one participant only. Repeating the
// call is a no-op.
func (r *messageRepository) DeleteForUser(ctx context.Context, messageID, userID int64) error {
	query := `
		INSERT INTO deleted_messages (user_id, message_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, message_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, messageID); err != nil {
		return fmt.Errorf("failed to delete message for user: %w", err)
	}
	return nil
}

// UpsertLastRead moves the read-marker forward only. GREATEST keeps the
// stored timestamp monotonic when pages arrive out of order.
func (r *messageRepository) UpsertLastRead(ctx context.Context, userID, conversationID int64, ts time.Time) error {
	query := `
		INSERT INTO last_read_messages (user_id, conversation_id, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, conversation_id)
		DO UPDATE SET timestamp = GREATEST(last_read_messages.timestamp, EXCLUDED.timestamp)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, conversationID, ts); err != nil {
		return fmt.Errorf("failed to upsert read marker: %w", err)
	}
	return nil
}

func (r *messageRepository) GetLastRead(ctx context.Context, userID, conversationID int64) (*time.Time, error) {
	var ts time.Time
	err := r.db.GetContext(ctx, &ts,
		`SELECT timestamp FROM last_read_messages WHERE user_id = $1 AND conversation_id = $2`,
		userID, conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get read marker: %w", err)
	}
	return &ts, nil
}

// inboxRow is the flat scan target for one inbox entry.
type inboxRow struct {
	ID            int64     `db:"id"`
	Body          string    `db:"body"`
	CreatedAt     time.Time `db:"created_on"`
	IsRead        bool      `db:"is_read"`
	OtherID       int64     `db:"other_id"`
	OtherUsername string    `db:"other_username"`
	OtherName     string    `db:"other_name"`
	OtherAvatar   *string   `db:"other_avatar"`
}

// GetInbox pages the newest visible message of each conversation involving
// userID, newest conversation activity first. A conversation whose messages
// are all deleted-for-me does not appear.
func (r *messageRepository) GetInbox(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.InboxEntry, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (m.conversation_id)
			       m.id, m.body, m.created_on, m.conversation_id,
			       CASE WHEN c.user1_id = $1 THEN c.user2_id ELSE c.user1_id END AS other_id
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			WHERE (c.user1_id = $1 OR c.user2_id = $1)
			  AND NOT EXISTS (
			      SELECT 1 FROM deleted_messages dm
			      WHERE dm.message_id = m.id AND dm.user_id = $1
			  )
			ORDER BY m.conversation_id, m.created_on DESC
		)
		SELECT l.id, l.body, l.created_on,
		       COALESCE(lr.timestamp >= l.created_on, FALSE) AS is_read,
		       l.other_id,
		       a.username AS other_username,
		       p.name AS other_name,
		       p.avatar AS other_avatar
		FROM latest l
		JOIN auths a ON a.user_id = l.other_id
		JOIN profiles p ON p.user_id = l.other_id
		LEFT JOIN last_read_messages lr
		       ON lr.user_id = $1 AND lr.conversation_id = l.conversation_id
		WHERE ($2::timestamptz IS NULL OR l.created_on < $2)
		ORDER BY l.created_on DESC
		LIMIT $3
	`

	var rows []inboxRow
	err := r.db.SelectContext(ctx, &rows, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox: %w", err)
	}

	entries := make([]model.InboxEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.InboxEntry{
			ID:        row.ID,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
			IsRead:    row.IsRead,
			User: model.UserSummary{
				ID:       row.OtherID,
				Username: row.OtherUsername,
				Name:     row.OtherName,
				Avatar:   row.OtherAvatar,
			},
		}
	}
	return entries, nil
}
