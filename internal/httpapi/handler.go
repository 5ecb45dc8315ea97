// Package httpapi exposes the REST surface over the domain services.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jandr07/VolunteerConnect/internal/auth"
	"github.com/Jandr07/VolunteerConnect/internal/event"
	"github.com/Jandr07/VolunteerConnect/internal/group"
	"github.com/Jandr07/VolunteerConnect/internal/metrics"
	"github.com/Jandr07/VolunteerConnect/internal/user"
)

const (
	serviceTimeout  = 10 * time.Second
	maxPayloadBytes = 1 << 20 // 1MB
)

type handler struct {
	users   user.Service
	groups  group.Service
	events  event.Service
	metrics *metrics.Collector
	logger  *slog.Logger
}

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	Users    user.Service
	Groups   group.Service
	Events   event.Service
	Verifier auth.Verifier
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// RegisterRoutes mounts all authenticated v1 routes on r.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	h := &handler{
		users:   deps.Users,
		groups:  deps.Groups,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.Verifier))

		r.Route("/v1/users/me", func(r chi.Router) {
			r.Post("/", h.ensureUser)
			r.Get("/", h.getUser)
			r.Patch("/", h.updateUser)
		})

		r.Route("/v1/groups", func(r chi.Router) {
			r.Post("/", h.createGroup)
			r.Get("/", h.searchGroups)
			r.Get("/mine", h.listMyGroups)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", h.getGroupDetail)
				r.Post("/join", h.joinGroup)
				r.Post("/leave", h.leaveGroup)
				r.Post("/requests/{userID}/approve", h.approveRequest)
				r.Post("/requests/{userID}/deny", h.denyRequest)
				r.Post("/members/{userID}/promote", h.promoteMember)
				r.Delete("/members/{userID}", h.kickMember)
			})
		})

		r.Route("/v1/events", func(r chi.Router) {
			r.Post("/", h.createEvent)
			r.Get("/", h.listEvents)
			r.Get("/mine", h.listMySignups)
			r.Get("/created", h.listCreatedEvents)
			r.Route("/{eventID}", func(r chi.Router) {
				r.Delete("/", h.deleteEvent)
				r.Get("/signups", h.listSignups)
				r.Post("/signups", h.signUp)
				r.Delete("/signups/me", h.removeSignup)
			})
		})

		r.Post("/v1/functions/deletegrouponlastleave", h.deleteGroupOnLastLeave)
	})
}
