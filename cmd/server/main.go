package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jandr07/VolunteerConnect/internal/auth"
	"github.com/Jandr07/VolunteerConnect/internal/config"
	"github.com/Jandr07/VolunteerConnect/internal/event"
	"github.com/Jandr07/VolunteerConnect/internal/group"
	"github.com/Jandr07/VolunteerConnect/internal/httpapi"
	"github.com/Jandr07/VolunteerConnect/internal/logging"
	"github.com/Jandr07/VolunteerConnect/internal/metrics"
	"github.com/Jandr07/VolunteerConnect/internal/server"
	"github.com/Jandr07/VolunteerConnect/internal/user"
)

const serviceName = "volunteerconnect"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	repos, cleanup, err := newRepositories(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	userService := user.NewService(repos.users)
	groupService := group.NewService(repos.groups, userService)
	eventService := event.NewService(repos.events, groupService, userService)

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     auth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	router := server.NewRouter(serviceName, registry, func(r chi.Router) {
		httpapi.RegisterRoutes(r, httpapi.Dependencies{
			Users:    userService,
			Groups:   groupService,
			Events:   eventService,
			Verifier: verifier,
			Metrics:  collector,
			Logger:   logger,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

type repositories struct {
	users  user.Repository
	groups group.Repository
	events event.Repository
}

func newRepositories(ctx context.Context, cfg config.Config) (repositories, func(), error) {
	switch cfg.DataStore {
	case "firestore":
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return repositories{}, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("firestore client: %w", err)
		}

		repos := repositories{
			users:  user.NewFirestoreRepository(client),
			groups: group.NewFirestoreRepository(client),
			events: event.NewFirestoreRepository(client),
		}
		cleanup := func() {
			_ = client.Close()
		}
		return repos, cleanup, nil
	default:
		eventRepo := event.NewMemoryRepository()
		return repositories{
			users:  user.NewMemoryRepository(),
			groups: group.NewMemoryRepository(eventRepo),
			events: eventRepo,
		}, func() {}, nil
	}
}
