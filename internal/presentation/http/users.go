package httppresentation

import (
	"net/http"

	appUser "github.com/zapshift/zapshift-backend/internal/application/user"
)

type upsertUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName"`
}

type upsertUserResponse struct {
	Email   string `json:"email"`
	Created bool   `json:"created"`
	Token   string `json:"token"`
}

// handleUpsertUser registers or refreshes a user and hands back a bearer
// credential for the rest of the API.
func (h *Handler) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	stored, created, err := h.users.Upsert(r.Context(), appUser.UpsertUserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	token, err := h.issuer.Issue(stored.Email, stored.Role)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, upsertUserResponse{
		Email:   stored.Email,
		Created: created,
		Token:   token,
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
