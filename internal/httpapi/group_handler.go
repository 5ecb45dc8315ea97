package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
	"github.com/Jandr07/VolunteerConnect/internal/event"
	"github.com/Jandr07/VolunteerConnect/internal/group"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
}

type deleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type deleteGroupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// groupDetailResponse is the group page payload: the membership view plus the
// group's events when the caller may see them.
type groupDetailResponse struct {
	*group.Detail
	Events []event.Event `json:"events,omitempty"`
}

func (h *handler) createGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	privacy := group.Privacy(strings.ToLower(strings.TrimSpace(req.Privacy)))
	if privacy == "" {
		privacy = group.PrivacyPublic
	}
	if privacy != group.PrivacyPublic && privacy != group.PrivacyPrivate {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "privacy must be public or private"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	g, err := h.groups.Create(ctx, p.UserID, p.Name, group.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Privacy:     privacy,
	})
	h.respond(w, r, "create_group", http.StatusCreated, g, err)
}

func (h *handler) searchGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	groups, err := h.groups.Search(ctx, r.URL.Query().Get("name"))
	h.respond(w, r, "search_groups", http.StatusOK, map[string]any{"items": groups}, err)
}

func (h *handler) listMyGroups(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	groups, err := h.groups.ListMine(ctx, p.UserID)
	h.respond(w, r, "list_my_groups", http.StatusOK, map[string]any{"items": groups}, err)
}

func (h *handler) getGroupDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	detail, err := h.groups.Detail(ctx, groupID, p.UserID)
	if err != nil {
		h.respond(w, r, "get_group", 0, nil, err)
		return
	}

	resp := groupDetailResponse{Detail: detail}
	if detail.CanView {
		events, err := h.events.ListForGroup(ctx, groupID)
		if err != nil {
			h.respond(w, r, "get_group", 0, nil, err)
			return
		}
		resp.Events = events
	}
	h.respond(w, r, "get_group", http.StatusOK, resp, nil)
}

func (h *handler) joinGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.groups.Join(ctx, groupID, p.UserID, p.Name, p.Email)
	h.respond(w, r, "join_group", http.StatusOK, result, err)
}

func (h *handler) leaveGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.groups.Leave(ctx, groupID, p.UserID)
	h.respond(w, r, "leave_group", http.StatusOK, result, err)
}

func (h *handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.groups.Approve(ctx, groupID, p.UserID, targetID)
	h.respond(w, r, "approve_request", http.StatusNoContent, nil, err)
}

func (h *handler) denyRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.groups.Deny(ctx, groupID, p.UserID, targetID)
	h.respond(w, r, "deny_request", http.StatusNoContent, nil, err)
}

func (h *handler) promoteMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.groups.Promote(ctx, groupID, p.UserID, targetID)
	h.respond(w, r, "promote_member", http.StatusNoContent, nil, err)
}

func (h *handler) kickMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.groups.Kick(ctx, groupID, p.UserID, targetID)
	h.respond(w, r, "kick_member", http.StatusNoContent, nil, err)
}

// deleteGroupOnLastLeave mirrors the legacy callable endpoint, body and
// response shape included, so existing clients keep working.
func (h *handler) deleteGroupOnLastLeave(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req deleteGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	message, err := h.groups.DeleteOnLastLeave(ctx, req.GroupID, p.UserID)
	if err != nil {
		h.respond(w, r, "delete_group_on_last_leave", 0, nil, err)
		return
	}
	h.respond(w, r, "delete_group_on_last_leave", http.StatusOK, deleteGroupResponse{
		Status:  "success",
		Message: message,
	}, nil)
}
