package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"converse/internal/model"
)

func TestMessageService_Send_UnknownUser(t *testing.T) {
	svc := NewMessageService(&mockAuthRepository{}, &mockUserRepository{}, &mockMessageRepository{}, 20)

	_, err := svc.Send(context.Background(), 1, 99, &model.CreateMessageRequest{Body: "hi"})
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

func TestMessageService_Send_CreatesConversationOnce(t *testing.T) {
	var created int
	msgRepo := &mockMessageRepository{
		getOrCreateConversationFn: func(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
			created++
			return &model.Conversation{ID: 7, User1ID: 1, User2ID: 2}, nil
		},
		createMessageFn: func(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error) {
			if conversationID != 7 {
				t.Errorf("message bound to conversation %d, want 7", conversationID)
			}
			return &model.Message{ID: 1, Body: body, AuthorID: authorID, ConversationID: conversationID}, nil
		},
	}
	svc := NewMessageService(&mockAuthRepository{}, userFor(2, "bob"), msgRepo, 20)

	msg, err := svc.Send(context.Background(), 1, 2, &model.CreateMessageRequest{Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.AuthorID != 1 {
		t.Errorf("author = %d, want 1", msg.AuthorID)
	}
	if created != 1 {
		t.Errorf("conversation lookups = %d, want 1", created)
	}
}

func TestMessageService_Send_MarksOwnRead(t *testing.T) {
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgRepo := &mockMessageRepository{
		createMessageFn: func(ctx context.Context, conversationID, authorID int64, body string) (*model.Message, error) {
			return &model.Message{ID: 1, Body: body, AuthorID: authorID, ConversationID: conversationID, CreatedAt: sentAt}, nil
		},
	}
	svc := NewMessageService(&mockAuthRepository{}, userFor(2, "bob"), msgRepo, 20)

	if _, err := svc.Send(context.Background(), 1, 2, &model.CreateMessageRequest{Body: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The sender's marker moves to the message time, so their own inbox
	// shows the conversation as read.
	if len(msgRepo.lastReadCalls) != 1 {
		t.Fatalf("read-marker updates = %d, want 1", len(msgRepo.lastReadCalls))
	}
	if !msgRepo.lastReadCalls[0].Equal(sentAt) {
		t.Errorf("marker time = %v, want %v", msgRepo.lastReadCalls[0], sentAt)
	}
}

func TestMessageService_History_NoConversationIsEmpty(t *testing.T) {
	msgRepo := &mockMessageRepository{}
	svc := NewMessageService(authFor(2, "bob"), &mockUserRepository{}, msgRepo, 20)

	page, err := svc.History(context.Background(), 1, "bob", "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Data) != 0 || page.NextCursor != nil {
		t.Errorf("expected empty page, got %+v", page)
	}
	if len(msgRepo.lastReadCalls) != 0 {
		t.Error("read-marker must not move without a conversation")
	}
}

func TestMessageService_History_MarksRead(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgRepo := &mockMessageRepository{
		getConversationFn: func(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
			return &model.Conversation{ID: 7, User1ID: 1, User2ID: 2}, nil
		},
		getMessagesFn: func(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error) {
			return []model.Message{
				{ID: 2, Body: "b", AuthorID: 2, ConversationID: 7, CreatedAt: base.Add(time.Minute)},
				{ID: 1, Body: "a", AuthorID: 1, ConversationID: 7, CreatedAt: base},
			}, nil
		},
	}
	svc := NewMessageService(authFor(2, "bob"), &mockUserRepository{}, msgRepo, 20)

	page, err := svc.History(context.Background(), 1, "bob", "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("got %d messages, want 2", len(page.Data))
	}
	if len(msgRepo.lastReadCalls) != 1 {
		t.Fatalf("read-marker updates = %d, want 1", len(msgRepo.lastReadCalls))
	}
}

func TestMessageService_History_Pagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	all := make([]model.Message, 5)
	for i := range all {
		id := int64(5 - i)
		all[i] = model.Message{ID: id, ConversationID: 7, AuthorID: 1, CreatedAt: base.Add(time.Duration(id) * time.Minute)}
	}

	msgRepo := &mockMessageRepository{
		getConversationFn: func(ctx context.Context, userID, otherID int64) (*model.Conversation, error) {
			return &model.Conversation{ID: 7, User1ID: 1, User2ID: 2}, nil
		},
		getMessagesFn: func(ctx context.Context, conversationID, viewerID int64, cursor *time.Time, limit int) ([]model.Message, error) {
			out := []model.Message{}
			for _, m := range all {
				if cursor != nil && !m.CreatedAt.Before(*cursor) {
					continue
				}
				out = append(out, m)
				if len(out) == limit {
					break
				}
			}
			return out, nil
		},
	}
	svc := NewMessageService(authFor(2, "bob"), &mockUserRepository{}, msgRepo, 2)

	seen := []int64{}
	cursor := ""
	for i := 0; ; i++ {
		if i > 10 {
			t.Fatal("pagination did not terminate")
		}
		page, err := svc.History(context.Background(), 1, "bob", cursor)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		for _, m := range page.Data {
			seen = append(seen, m.ID)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	want := []int64{5, 4, 3, 2, 1}
	if len(seen) != len(want) {
		t.Fatalf("walked %d messages, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d = message %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestMessageService_Delete(t *testing.T) {
	msg := &model.Message{ID: 3, AuthorID: 1, ConversationID: 7}
	conv := &model.Conversation{ID: 7, User1ID: 1, User2ID: 2}

	tests := []struct {
		name            string
		callerID        int64
		userOnly        bool
		wantErr         error
		wantHardDeletes int
		wantSoftDeletes int
	}{
		{"author hard-deletes", 1, false, nil, 1, 0},
		{"recipient cannot hard-delete", 2, false, model.ErrNotMessageAuthor, 0, 0},
		{"recipient hides for self", 2, true, nil, 0, 1},
		{"author hides for self", 1, true, nil, 0, 1},
		{"outsider cannot touch", 3, true, model.ErrMessageNotFound, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgRepo := &mockMessageRepository{
				getByIDFn: func(ctx context.Context, messageID int64) (*model.Message, error) {
					return msg, nil
				},
				getConversationByIDFn: func(ctx context.Context, conversationID int64) (*model.Conversation, error) {
					return conv, nil
				},
			}
			svc := NewMessageService(&mockAuthRepository{}, &mockUserRepository{}, msgRepo, 20)

			err := svc.Delete(context.Background(), tt.callerID, 3, tt.userOnly)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if len(msgRepo.deleteCalls) != tt.wantHardDeletes {
				t.Errorf("hard deletes = %d, want %d", len(msgRepo.deleteCalls), tt.wantHardDeletes)
			}
			if len(msgRepo.deleteForUserCalls) != tt.wantSoftDeletes {
				t.Errorf("soft deletes = %d, want %d", len(msgRepo.deleteForUserCalls), tt.wantSoftDeletes)
			}
		})
	}
}

func TestMessageService_Inbox_Pagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	all := make([]model.InboxEntry, 3)
	for i := range all {
		id := int64(3 - i)
		all[i] = model.InboxEntry{
			ID:        id,
			Body:      "m",
			CreatedAt: base.Add(time.Duration(id) * time.Minute),
			User:      model.UserSummary{ID: id + 10, Username: "u", Name: "U"},
		}
	}

	msgRepo := &mockMessageRepository{
		getInboxFn: func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.InboxEntry, error) {
			out := []model.InboxEntry{}
			for _, e := range all {
				if cursor != nil && !e.CreatedAt.Before(*cursor) {
					continue
				}
				out = append(out, e)
				if len(out) == limit {
					break
				}
			}
			return out, nil
		},
	}
	svc := NewMessageService(&mockAuthRepository{}, &mockUserRepository{}, msgRepo, 2)

	first, err := svc.Inbox(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(first.Data) != 2 || first.NextCursor == nil {
		t.Fatalf("first page = %d entries, nextCursor %v", len(first.Data), first.NextCursor)
	}

	second, err := svc.Inbox(context.Background(), 1, *first.NextCursor)
	if err != nil {
		t.Fatalf("Inbox page 2: %v", err)
	}
	if len(second.Data) != 1 || second.Data[0].ID != 1 {
		t.Errorf("second page = %+v, want single entry id 1", second.Data)
	}
}
