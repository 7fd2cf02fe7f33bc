package api

import (
	"net/http"
	"time"

	"chimu/internal/api/handler"
	"chimu/internal/api/middleware"
	"chimu/internal/app/service"
	"chimu/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authService *service.AuthService,
	jamService *service.JamService,
	teamService *service.TeamService,
	registrationService *service.RegistrationService,
	projectService *service.ProjectService,
	ratingService *service.RatingService,
	leaderboardService *service.LeaderboardService,
	lifecycleService *service.LifecycleService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Metrics)

	// Verifies a bearer token when present and puts claims in context; the
	// Authenticator middleware on protected groups enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		jamHandler := handler.NewJamHandler(jamService, leaderboardService)
		v1.Route("/jams", jamHandler.RegisterRoutes)

		teamHandler := handler.NewTeamHandler(teamService)
		v1.Route("/teams", teamHandler.RegisterRoutes)

		registrationHandler := handler.NewRegistrationHandler(registrationService)
		v1.Route("/registrations", registrationHandler.RegisterRoutes)

		projectHandler := handler.NewProjectHandler(projectService)
		v1.Route("/projects", projectHandler.RegisterRoutes)

		ratingHandler := handler.NewRatingHandler(ratingService)
		v1.Route("/ratings", ratingHandler.RegisterRoutes)

		adminHandler := handler.NewAdminHandler(lifecycleService)
		v1.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
