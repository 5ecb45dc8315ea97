package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
	"github.com/Jandr07/VolunteerConnect/internal/auth"
	"github.com/Jandr07/VolunteerConnect/internal/event"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	writeJSON(w, apperr.ToStatusCode(code), apperr.ErrorResponse{
		Code:      string(code),
		Message:   apperr.MessageOf(err),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respond finishes an operation: records the outcome metric, logs failures,
// and writes either the payload or the error envelope.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, op string, status int, payload any, err error) {
	if err == nil {
		if h.metrics != nil {
			h.metrics.RecordOperation(op, "ok")
		}
		if payload == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, payload)
		return
	}

	code := apperr.CodeOf(err)
	if h.metrics != nil {
		h.metrics.RecordOperation(op, string(code))
		if errors.Is(err, event.ErrEventFull) {
			h.metrics.RecordSignupFull()
		}
	}
	if code == apperr.CodeInternal && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	writeError(w, r, err)
}

// principal extracts the authenticated caller or writes a 401. The auth
// middleware normally guarantees presence; this covers misconfigured routes.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || p.UserID == "" {
		writeError(w, r, apperr.New(apperr.CodeUnauthenticated, "authentication required"))
		return auth.Principal{}, false
	}
	return p, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxPayloadBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.New(apperr.CodeInvalidArgument, "invalid JSON payload")
	}
	return nil
}
