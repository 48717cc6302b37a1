package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/service"
	"converse/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService service.FollowService
}

func NewFollowHandler(followService service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Follow handles POST /api/users/{id}/follow. The edge endpoints address
// users by id; the path slot is shared with the username-scoped listings,
// so the id arrives through the same route parameter.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.setEdge(w, r, h.followService.Follow)
}

// Unfollow handles POST /api/users/{id}/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.setEdge(w, r, h.followService.Unfollow)
}

func (h *FollowHandler) setEdge(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, followerID, followedID int64) (*model.UserSummary, error),
) {
	userID, _ := middleware.UserID(r.Context())

	targetID, err := strconv.ParseInt(chi.URLParam(r, "username"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id.")
		return
	}

	target, err := op(r.Context(), userID, targetID)
	if err != nil {
		h.writeGraphError(w, err, "Failed to update follow.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, target)
}

// Followers handles GET /api/users/{username}/followers
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.Followers)
}

// Following handles GET /api/users/{username}/following
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.Following)
}

func (h *FollowHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, username string, viewerID int64, cursor string) (*model.UserListPage, error),
) {
	viewerID, _ := middleware.UserID(r.Context())
	username := chi.URLParam(r, "username")
	cursor := r.URL.Query().Get("cursor")

	page, err := fetch(r.Context(), username, viewerID, cursor)
	if err != nil {
		h.writeGraphError(w, err, "Failed to load users.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *FollowHandler) writeGraphError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found.")
	case errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, "You cannot follow yourself.")
	case errors.Is(err, pagination.ErrInvalidCursor):
		httputil.WriteBadRequest(w, "Invalid cursor.")
	default:
		log.Printf("[ERROR] Follow graph: %v", err)
		httputil.WriteInternalError(w, fallback)
	}
}
