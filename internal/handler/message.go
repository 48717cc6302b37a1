package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/service"
	"converse/internal/transport/http/middleware"
	"converse/internal/validate"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Messages handles GET /api/messages. With ?username= it pages the
// conversation with that user; without it it pages the inbox.
func (h *MessageHandler) Messages(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("username") != "" {
		h.History(w, r)
		return
	}
	h.Inbox(w, r)
}

// Inbox handles GET /api/users/messages
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	page, err := h.messageService.Inbox(r.Context(), userID, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeMessageError(w, err, "Failed to load inbox.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// History handles GET /api/messages?username={username}
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	username := r.URL.Query().Get("username")

	page, err := h.messageService.History(r.Context(), userID, username, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeMessageError(w, err, "Failed to load messages.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Send handles POST /api/messages?user={id}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	recipientID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id.")
		return
	}

	var req model.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	msg, err := h.messageService.Send(r.Context(), userID, recipientID, &req)
	if err != nil {
		h.writeMessageError(w, err, "Failed to send message.")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/messages/%d", msg.ID))
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// Delete handles DELETE /api/messages/{id}. With ?userOnly=true the message
// is hidden from the caller only.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	messageID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid message id.")
		return
	}

	userOnly := r.URL.Query().Get("userOnly") == "true"

	if err := h.messageService.Delete(r.Context(), userID, messageID, userOnly); err != nil {
		h.writeMessageError(w, err, "Failed to delete message.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Message deleted."})
}

func (h *MessageHandler) writeMessageError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found.")
	case errors.Is(err, model.ErrMessageNotFound):
		httputil.WriteNotFound(w, "Message not found.")
	case errors.Is(err, model.ErrNotMessageAuthor):
		httputil.WriteForbidden(w, "You can only delete your own messages.")
	case errors.Is(err, pagination.ErrInvalidCursor):
		httputil.WriteBadRequest(w, "Invalid cursor.")
	default:
		log.Printf("[ERROR] Message: %v", err)
		httputil.WriteInternalError(w, fallback)
	}
}
