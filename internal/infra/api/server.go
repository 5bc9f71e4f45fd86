// Package api is the HTTP surface of the marketplace.
package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/usecase"
)

// RateLimiter is satisfied by the Redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Deps struct {
	Listings      usecase.ListingUseCase
	Agencies      usecase.AgencyUseCase
	Subscriptions usecase.SubscriptionUseCase
	Assistant     usecase.AssistantUseCase
	Storage       adapter.ImageStorage
	Auth          *Authenticator
	// Limiter is optional; without it the assistant is not rate limited.
	Limiter RateLimiter
}

type Options struct {
	AdminAPIKey    string
	AllowedOrigins []string
	RequestTimeout time.Duration

	MaxFileBytes int64
	MaxFiles     int

	AssistantRateLimit  int
	AssistantRateWindow time.Duration

	// UploadsDir, when set, is served read-only under /uploads/properties/.
	UploadsDir string
}

type Server struct {
	Deps
	opts     Options
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 5 << 20
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 10
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	l := logger.With().Str("component", "http").Logger()
	return &Server{Deps: deps, opts: opts, validate: v, log: &l}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	for _, mw := range []Middleware{TraceID(), Recover(s.log), RequestLog(s.log), Timeout(s.opts.RequestTimeout)} {
		r.Use(mw)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Route not found"})
	})

	r.Get("/api/health", s.health)
	r.Handle("/metrics", promhttp.Handler())
	if s.opts.UploadsDir != "" {
		r.Handle("/uploads/properties/*", http.StripPrefix("/uploads/properties/", http.FileServer(http.Dir(s.opts.UploadsDir))))
	}

	r.Route("/api/properties", func(r chi.Router) {
		r.Get("/", s.browseListings)
		r.Get("/{id}", s.getListing)
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.RequireOwner)
			r.Get("/agency/my-properties", s.myListings)
			r.Post("/", s.createListing)
			r.Put("/{id}", s.updateListing)
			r.Delete("/{id}", s.deleteListing)
		})
	})

	r.Route("/api/agencies", func(r chi.Router) {
		r.Get("/all", s.listAgencies)
		r.Get("/public/{id}", s.getPublicAgency)
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.RequireOwner)
			r.Post("/", s.registerAgency)
			r.Get("/profile", s.getMyAgency)
			r.Put("/profile", s.updateMyAgency)
			r.Get("/dashboard/stats", s.dashboardStats)
		})
	})

	r.Route("/api/subscriptions", func(r chi.Router) {
		r.Get("/plans", s.listPlans)
		r.Get("/plans/{tier}", s.getPlan)
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.RequireOwner)
			r.Post("/subscribe", s.subscribe)
			r.Post("/renew", s.renew)
			r.Get("/status", s.subscriptionStatus)
			r.Post("/cancel", s.cancelSubscription)
		})
	})

	r.Route("/api/ai", func(r chi.Router) {
		r.Use(s.rateLimit("http"))
		r.Post("/chatbot", s.chat)
		r.Post("/voicebot", s.voice)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(RequireAdminKey(s.opts.AdminAPIKey, s.log))
		r.Put("/plans/{tier}", s.upsertPlan)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
