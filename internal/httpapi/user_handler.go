package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type updateUserRequest struct {
	FullName string `json:"fullName"`
}

func (h *handler) ensureUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.users.EnsureUser(ctx, p.UserID, p.Name, p.Email)
	h.respond(w, r, "ensure_user", http.StatusOK, u, err)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.users.Get(ctx, p.UserID)
	h.respond(w, r, "get_user", http.StatusOK, u, err)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fullName := strings.TrimSpace(req.FullName)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.users.UpdateFullName(ctx, p.UserID, fullName)
	h.respond(w, r, "update_user", http.StatusOK, u, err)
}
