package handlers

import (
	"log"
	"net/http"
	"vendtrack/auth"
	"vendtrack/middleware"
	"vendtrack/navigation"
	"vendtrack/service"
)

type AuthHandler struct {
	auth       *service.AuthService
	jwtManager *auth.JWTManager
}

func NewAuthHandler(authService *service.AuthService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		auth:       authService,
		jwtManager: jwtManager,
	}
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// issueTokens writes a fresh token pair for the session.
func (h *AuthHandler) issueTokens(w http.ResponseWriter, status int, session *auth.Session) {
	token, err := h.jwtManager.GenerateToken(&session.User, session.ID)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", session.User.Email, err)
		writeError(w, "Failed to generate authentication token", service.KindInternal)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(&session.User, session.ID)
	if err != nil {
		log.Printf("Failed to generate refresh token for user %s: %v", session.User.Email, err)
		writeError(w, "Failed to generate refresh token", service.KindInternal)
		return
	}

	writeSuccess(w, status, map[string]interface{}{
		"token":        token,
		"refreshToken": refreshToken,
		"user":         session.User,
		"expiresAt":    session.ExpiresAt,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.issueTokens(w, http.StatusOK, session)
}

// RefreshToken exchanges a refresh token for a new token pair. The profile
// is re-read so a changed role takes effect in the new tokens.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, "Refresh token is required", service.KindValidation)
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", service.KindUnauthorized)
		return
	}

	session, err := h.auth.CurrentUser(r.Context(), claims.SessionID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.issueTokens(w, http.StatusOK, session)
}

// Logout ends the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeError(w, "Session not found in context", service.KindUnauthorized)
		return
	}

	if err := h.auth.Logout(r.Context(), session.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "Logged out"})
}

// Me returns the session user's current profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeError(w, "Session not found in context", service.KindUnauthorized)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"user":      session.User,
		"expiresAt": session.ExpiresAt,
	})
}

// Navigation returns the toolbar and menu entries for the session user
func (h *AuthHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{"navigation": navigation.For(user)})
}
