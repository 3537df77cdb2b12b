package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"inkwell/internal/domain/repositories"
	"inkwell/internal/httputil"
)

// CollaboratorHandler manages workspace membership over HTTP
type CollaboratorHandler struct {
	collaborators repositories.CollaboratorRepository
	logger        *slog.Logger
}

// NewCollaboratorHandler creates a new collaborator handler
func NewCollaboratorHandler(collaborators repositories.CollaboratorRepository, logger *slog.Logger) *CollaboratorHandler {
	return &CollaboratorHandler{
		collaborators: collaborators,
		logger:        logger,
	}
}

// AddCollaboratorRequest is the POST body.
type AddCollaboratorRequest struct {
	UserID string `json:"user_id"`
}

func (r AddCollaboratorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
	)
}

// ListCollaborators returns the workspace's collaborators as user records
// GET /api/workspaces/{id}/collaborators
func (h *CollaboratorHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	users, err := h.collaborators.ListUsers(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

// AddCollaborator links a user to the workspace, idempotently
// POST /api/workspaces/{id}/collaborators
func (h *CollaboratorHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req AddCollaboratorRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.collaborators.Add(r.Context(), r.PathValue("id"), req.UserID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveCollaborator unlinks a user from the workspace
// DELETE /api/workspaces/{id}/collaborators/{userID}
func (h *CollaboratorHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	if err := h.collaborators.Remove(r.Context(), r.PathValue("id"), r.PathValue("userID")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
