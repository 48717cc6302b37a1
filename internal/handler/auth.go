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

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrUserExists) {
			httputil.WriteConflict(w, "That user already exists.")
			return
		}
		log.Printf("[ERROR] Register: %v", err)
		httputil.WriteInternalError(w, "Failed to register.")
		return
	}

	w.Header().Set("Location", "/api/profile/"+req.Username)
	httputil.WriteJSON(w, http.StatusCreated, model.TokenResponse{Token: token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validate.Struct(&req); fields != nil {
		httputil.WriteValidationError(w, fields)
		return
	}

	token, err := h.authService.Login(r.Context(), &req, clientIP(r))
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid credentials.")
			return
		}
		log.Printf("[ERROR] Login: %v", err)
		httputil.WriteInternalError(w, "Failed to log in.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// CurrentUser handles GET /api/auth/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] CurrentUser: %v", err)
		httputil.WriteInternalError(w, "Failed to load user.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Logout handles GET /api/auth/logout. Tokens are stateless; the endpoint
// exists so clients have a uniform logout call.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out."})
}
