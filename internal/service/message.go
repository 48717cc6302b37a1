package service

import (
	"context"
	"errors"
	"log"
	"time"

	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/repository"
)

// MessageService manages pairwise conversations, read-markers and the inbox.
type MessageService interface {
	// Send delivers a message to the given user, creating the conversation
	// on first contact. The sender's read-marker advances to the message
	// time.
	Send(ctx context.Context, userID, recipientID int64, req *model.CreateMessageRequest) (*model.Message, error)

	// History pages the conversation with the named user, newest first.
	// Reading a page advances the caller's read-marker.
	History(ctx context.Context, userID int64, username string, cursor string) (*model.MessagePage, error)

	// Inbox pages the newest visible message per conversation, newest first.
	Inbox(ctx context.Context, userID int64, cursor string) (*model.InboxPage, error)

	// Delete removes a message. With userOnly the message is only hidden
	// from the caller and either participant may do it; otherwise only the
	// author may delete, and the message disappears for both.
	Delete(ctx context.Context, userID, messageID int64, userOnly bool) error
}

type messageService struct {
	authRepo    repository.AuthRepository
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	pageSize    int
}

func NewMessageService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	pageSize int,
) MessageService {
	return &messageService{
		authRepo:    authRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		pageSize:    pageSize,
	}
}

func (s *messageService) Send(ctx context.Context, userID, recipientID int64, req *model.CreateMessageRequest) (*model.Message, error) {
	exists, err := s.userRepo.Exists(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	conv, err := s.messageRepo.GetOrCreateConversation(ctx, userID, recipientID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.CreateMessage(ctx, conv.ID, userID, req.Body)
	if err != nil {
		return nil, err
	}

	// The sender has read their own message; move their marker to its time
	// so the conversation shows as read in their inbox.
	if err := s.messageRepo.UpsertLastRead(ctx, userID, conv.ID, msg.CreatedAt); err != nil {
		return nil, err
	}

	log.Printf("[MessageService] User %d sent message %d in conversation %d", userID, msg.ID, conv.ID)
	return msg, nil
}

func (s *messageService) History(ctx context.Context, userID int64, username string, cursor string) (*model.MessagePage, error) {
	other, err := resolveUsername(ctx, s.authRepo, username)
	if err != nil {
		return nil, err
	}

	after, err := timeCursor(cursor)
	if err != nil {
		return nil, err
	}

	conv, err := s.messageRepo.GetConversation(ctx, userID, other.UserID)
	if err != nil {
		if errors.Is(err, model.ErrConversationNotFound) {
			// No contact yet: an empty history, not an error.
			return &model.MessagePage{Data: []model.Message{}}, nil
		}
		return nil, err
	}

	rows, err := s.messageRepo.GetMessages(ctx, conv.ID, userID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	messages, hasMore := pagination.Trim(rows, s.pageSize)

	// Reading marks as read. The marker moves after the page is computed
	// and never backwards.
	if err := s.messageRepo.UpsertLastRead(ctx, userID, conv.ID, time.Now().UTC()); err != nil {
		log.Printf("[MessageService] Read-marker update failed for user %d conversation %d: %v", userID, conv.ID, err)
	}

	page := &model.MessagePage{Data: messages}
	if hasMore {
		next := pagination.EncodeTime(messages[len(messages)-1].CreatedAt)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *messageService) Inbox(ctx context.Context, userID int64, cursor string) (*model.InboxPage, error) {
	after, err := timeCursor(cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.messageRepo.GetInbox(ctx, userID, after, s.pageSize+1)
	if err != nil {
		return nil, err
	}
	entries, hasMore := pagination.Trim(rows, s.pageSize)

	page := &model.InboxPage{Data: entries}
	if hasMore {
		next := pagination.EncodeTime(entries[len(entries)-1].CreatedAt)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *messageService) Delete(ctx context.Context, userID, messageID int64, userOnly bool) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if userOnly {
		conv, err := s.messageRepo.GetConversationByID(ctx, msg.ConversationID)
		if err != nil {
			return err
		}
		if conv.User1ID != userID && conv.User2ID != userID {
			return model.ErrMessageNotFound
		}
		return s.messageRepo.DeleteForUser(ctx, messageID, userID)
	}

	if msg.AuthorID != userID {
		return model.ErrNotMessageAuthor
	}
	return s.messageRepo.Delete(ctx, messageID)
}
