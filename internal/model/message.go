package model

import (
	"errors"
	"time"
)

// Conversation is the pairwise channel between two users, unique per
// unordered pair. User1ID always holds the lower user id so a concurrent
// duplicate insert trips the unique constraint instead of creating a twin.
type Conversation struct {
	ID      int64 `db:"id" json:"id"`
	User1ID int64 `db:"user1_id" json:"-"`
	User2ID int64 `db:"user2_id" json:"-"`
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) int64 {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message belongs to its conversation; conversation deletion cascades.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	Body           string    `db:"body" json:"body"`
	AuthorID       int64     `db:"author_id" json:"author_id"`
	ConversationID int64     `db:"conversation_id" json:"-"`
	CreatedAt      time.Time `db:"created_on" json:"created_on"`
}

// CreateMessageRequest is the request body for sending a message.
type CreateMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// MessagePage is the paginated conversation history response.
type MessagePage struct {
	Data       []Message `json:"data"`
	NextCursor *string   `json:"nextCursor"`
}

// InboxEntry is the newest visible message of one conversation, joined with
// the other participant and the caller's read-marker state.
type InboxEntry struct {
	ID        int64       `db:"id" json:"id"`
	Body      string      `db:"body" json:"body"`
	CreatedAt time.Time   `db:"created_on" json:"created_on"`
	IsRead    bool        `db:"is_read" json:"isRead"`
	User      UserSummary `json:"user"`
}

// InboxPage is the paginated inbox response.
type InboxPage struct {
	Data       []InboxEntry `json:"data"`
	NextCursor *string      `json:"nextCursor"`
}

var (
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotMessageAuthor     = errors.New("cannot delete another user's message")
	ErrConversationNotFound = errors.New("conversation not found")
)
