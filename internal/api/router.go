package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/rationbridge/rationbridge-be/internal/api/handlers"
	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/services"
	"github.com/rationbridge/rationbridge-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	resolver *auth.Resolver,
	authn *identity.Authenticator,
	foodSvc services.FoodServiceProvider,
	userSvc services.UserServiceProvider,
	eventSvc services.EventServiceProvider,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authn)
	foodHandler := handlers.NewFoodHandler(foodSvc, eventSvc)
	userHandler := handlers.NewUserHandler(userSvc)
	eventHandler := handlers.NewEventHandler(eventSvc)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireAuth := resolver.Middleware()
	authLimiter := newIPRateLimiter(rate.Every(time.Second), 20)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Live activity feed
		r.Get("/ws", wsHandler.Serve)
		r.Get("/events", eventHandler.Recent)

		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Handler)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/food", func(r chi.Router) {
			r.Get("/", foodHandler.List)
			r.With(requireAuth).Post("/", foodHandler.Create)
			r.With(requireAuth).Get("/requests", foodHandler.ListRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", foodHandler.Get)
				r.With(requireAuth).Put("/", foodHandler.Update)
				r.With(requireAuth).Delete("/", foodHandler.Delete)
				r.With(requireAuth).Post("/request", foodHandler.Request)
				r.With(requireAuth).Get("/requests", foodHandler.ListItemRequests)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", userHandler.List)
			r.Get("/profile", userHandler.Profile)
			r.Put("/profile", userHandler.UpdateProfile)
		})
	})

	return r
}
