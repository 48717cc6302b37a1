package handler

import (
	"errors"
	"log"
	"net/http"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/service"
	"converse/internal/transport/http/middleware"
	"converse/internal/validate"
)

type TagHandler struct {
	tagService service.TagService
}

func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// List handles GET /api/tags
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] ListTags: %v", err)
		httputil.WriteInternalError(w, "Failed to load tags.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]model.Tag{"data": tags})
}

// Create handles POST /api/tags
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	tag, err := h.tagService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrTagExists) {
			httputil.WriteConflict(w, "That tag already exists.")
			return
		}
		log.Printf("[ERROR] CreateTag: %v", err)
		httputil.WriteInternalError(w, "Failed to create tag.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tag)
}

// ToggleFollow handles POST /api/tags/{id}/follow. The same call follows an
// unfollowed tag and unfollows a followed one.
func (h *TagHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	tagID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid tag id.")
		return
	}

	tag, err := h.tagService.ToggleFollow(r.Context(), userID, tagID)
	if err != nil {
		if errors.Is(err, model.ErrTagNotFound) {
			httputil.WriteNotFound(w, "Tag not found.")
			return
		}
		log.Printf("[ERROR] TagFollow: %v", err)
		httputil.WriteInternalError(w, "Failed to update tag follow.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tag)
}
