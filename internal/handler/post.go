package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/pagination"
	"converse/internal/service"
	"converse/internal/transport/http/middleware"
	"converse/internal/validate"
)

type PostHandler struct {
	postService service.PostService
	feedService service.FeedService
}

func NewPostHandler(postService service.PostService, feedService service.FeedService) *PostHandler {
	return &PostHandler{postService: postService, feedService: feedService}
}

// Feed handles GET /api/posts?feed=latest|top
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	cursor := r.URL.Query().Get("cursor")

	var (
		page *model.PostPage
		err  error
	)
	switch feed := r.URL.Query().Get("feed"); feed {
	case "", model.FeedLatest:
		page, err = h.feedService.Latest(r.Context(), userID, cursor)
	case model.FeedTop:
		page, err = h.feedService.Top(r.Context(), userID, cursor)
	default:
		httputil.WriteBadRequest(w, "Unknown feed variant.")
		return
	}
	if err != nil {
		h.writePostError(w, err, "Failed to load feed.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	post, err := h.postService.CreatePost(r.Context(), userID, &req)
	if err != nil {
		h.writePostError(w, err, "Failed to create post.")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/posts/%d", post.ID))
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Get handles GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	postID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id.")
		return
	}

	post, err := h.postService.Get(r.Context(), postID, userID)
	if err != nil {
		h.writePostError(w, err, "Failed to load post.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	postID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id.")
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		h.writePostError(w, err, "Failed to delete post.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Post deleted."})
}

// Comments handles GET /api/posts/{id}/comments
func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	postID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id.")
		return
	}

	page, err := h.postService.Comments(r.Context(), postID, userID, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writePostError(w, err, "Failed to load comments.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// CreateComment handles POST /api/posts/{id}/comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	postID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id.")
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	comment, err := h.postService.CreateComment(r.Context(), userID, postID, &req)
	if err != nil {
		h.writePostError(w, err, "Failed to create comment.")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/posts/%d", comment.ID))
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// ToggleLike handles POST /api/posts/{id}/likes. The same call likes an
// unliked post and unlikes a liked one; the response carries the new state.
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	postID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id.")
		return
	}

	post, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		h.writePostError(w, err, "Failed to update like.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// UserPosts handles GET /api/users/{username}/posts
func (h *PostHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	h.listUser(w, r, h.postService.UserPosts)
}

// UserComments handles GET /api/users/{username}/comments
func (h *PostHandler) UserComments(w http.ResponseWriter, r *http.Request) {
	h.listUser(w, r, h.postService.UserComments)
}

// UserLikes handles GET /api/users/{username}/likes
func (h *PostHandler) UserLikes(w http.ResponseWriter, r *http.Request) {
	h.listUser(w, r, h.postService.LikedPosts)
}

func (h *PostHandler) listUser(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, username string, viewerID int64, cursor string) (*model.PostListPage, error),
) {
	viewerID, _ := middleware.UserID(r.Context())
	username := chi.URLParam(r, "username")

	page, err := fetch(r.Context(), username, viewerID, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writePostError(w, err, "Failed to load posts.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *PostHandler) writePostError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found.")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found.")
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, "You can only delete your own posts.")
	case errors.Is(err, pagination.ErrInvalidCursor):
		httputil.WriteBadRequest(w, "Invalid cursor.")
	default:
		log.Printf("[ERROR] Post: %v", err)
		httputil.WriteInternalError(w, fallback)
	}
}
