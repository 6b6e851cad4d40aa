package handlers

import (
	"net/http"
	"strconv"
	"vendtrack/middleware"
	"vendtrack/service"

	"github.com/go-chi/chi/v5"
)

const defaultAuditLimit = 100

type AdminHandler struct {
	auth  *service.AuthService
	users *service.UserService
	audit *service.AuditLogger
}

func NewAdminHandler(authService *service.AuthService, users *service.UserService, audit *service.AuditLogger) *AdminHandler {
	return &AdminHandler{
		auth:  authService,
		users: users,
		audit: audit,
	}
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// --- User Management ---

// GetUsers returns all users
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// CreateUser creates the account and profile of a new user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.auth.CreateUser(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// GetUser returns one user profile
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// UpdateUser merges changes into a user profile
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if !decodeJSON(w, r, &patch) {
		return
	}
	delete(patch, "email")

	user, err := h.users.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// DeleteUser removes a user profile and its account
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", service.KindUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	// Prevent deleting yourself
	if id == adminUser.ID {
		writeError(w, "Cannot delete your own account", service.KindValidation)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "User deleted"})
}

// ResetPassword sets a new password for a user
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		writeError(w, "newPassword is required", service.KindValidation)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"message": "Password updated"})
}

// --- Audit Logs ---

// GetAuditLogs returns the most recent audit entries, newest first
func (h *AdminHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive number", service.KindValidation)
			return
		}
		limit = n
	}

	logs, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
