package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jandr07/VolunteerConnect/internal/event"
)

type createEventRequest struct {
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	MaxParticipants int       `json:"maxParticipants"`
	GroupID         string    `json:"groupId"`
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	e, err := h.events.Create(ctx, p.UserID, p.Email, event.CreateEventInput{
		Title:           req.Title,
		Date:            req.Date.UTC(),
		Location:        req.Location,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		GroupID:         req.GroupID,
	})
	h.respond(w, r, "create_event", http.StatusCreated, e, err)
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	events, err := h.events.ListVisible(ctx, p.UserID)
	h.respond(w, r, "list_events", http.StatusOK, map[string]any{"items": events}, err)
}

func (h *handler) listMySignups(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	events, err := h.events.ListMySignups(ctx, p.UserID)
	h.respond(w, r, "list_my_signups", http.StatusOK, map[string]any{"items": events}, err)
}

func (h *handler) listCreatedEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	events, err := h.events.ListCreated(ctx, p.UserID)
	h.respond(w, r, "list_created_events", http.StatusOK, map[string]any{"items": events}, err)
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.events.SignUp(ctx, eventID, p.UserID, p.Name, p.Email)
	h.respond(w, r, "sign_up", http.StatusOK, result, err)
}

func (h *handler) removeSignup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.events.RemoveSignup(ctx, eventID, p.UserID)
	h.respond(w, r, "remove_signup", http.StatusNoContent, nil, err)
}

func (h *handler) listSignups(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	signups, err := h.events.Roster(ctx, eventID, p.UserID)
	h.respond(w, r, "list_signups", http.StatusOK, map[string]any{"items": signups}, err)
}

func (h *handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.events.Delete(ctx, eventID, p.UserID)
	h.respond(w, r, "delete_event", http.StatusNoContent, nil, err)
}
