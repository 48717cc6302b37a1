package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"converse/internal/httputil"
	"converse/internal/model"
	"converse/internal/service"
	"converse/internal/transport/http/middleware"
	"converse/internal/validate"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get handles GET /api/profile/{username}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.UserID(r.Context())
	username := chi.URLParam(r, "username")

	profile, err := h.profileService.GetByUsername(r.Context(), username, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found.")
			return
		}
		log.Printf("[ERROR] GetProfile: %v", err)
		httputil.WriteInternalError(w, "Failed to load profile.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Update handles PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req model.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, &req)
	if err != nil {
		log.Printf("[ERROR] UpdateProfile: %v", err)
		httputil.WriteInternalError(w, "Failed to update profile.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Delete handles DELETE /api/profile
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	if err := h.profileService.DeleteAccount(r.Context(), userID); err != nil {
		log.Printf("[ERROR] DeleteAccount: %v", err)
		httputil.WriteInternalError(w, "Failed to delete account.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted."})
}
