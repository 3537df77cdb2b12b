package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/httputil"
)

// UserHandler serves user lookups for the collaborator picker
type UserHandler struct {
	users  repositories.UserRepository
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users repositories.UserRepository, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// SearchUsers matches users by email prefix, excluding the caller
// GET /api/users/search?q=prefix
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	if prefix == "" {
		httputil.RespondJSON(w, http.StatusOK, []models.User{})
		return
	}

	users, err := h.users.SearchByEmail(r.Context(), prefix)
	if err != nil {
		handleError(w, err)
		return
	}

	// The caller never collaborates with themselves.
	self := httputil.GetUserID(r)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != self {
			out = append(out, u)
		}
	}

	httputil.RespondJSON(w, http.StatusOK, out)
}

// GetMe returns the caller's user record
// GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByID(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}
