// Package api exposes the HTTP surface: registration, login and the
// token-guarded profile endpoint.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/authhub-io/authhub/internal/auth"
	"github.com/authhub-io/authhub/internal/config"
	"github.com/authhub-io/authhub/internal/database"
	"github.com/authhub-io/authhub/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Store is what the handlers need from the credential store.
type Store interface {
	CreateUser(username, passwordHash string) (*database.User, error)
	GetUserByUsername(username string) (*database.User, error)
	GetUserByID(id int64) (*database.User, error)
	UpdateLastLogin(id int64) error
}

type Api struct {
	Config   *config.Config
	Router   *chi.Mux
	store    Store
	tokens   *auth.TokenManager
	validate *validator.Validate
}

// NewApi wires the router. It fails if the signing secret is missing, so a
// misconfigured process never serves a request.
func NewApi(cfg *config.Config, store Store) (*Api, error) {
	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	api := &Api{
		Config:   cfg,
		Router:   chi.NewRouter(),
		store:    store,
		tokens:   tokens,
		validate: validator.New(),
	}
	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/heartbeat", api.Heartbeat)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", api.RegisterHandler)
		r.Post("/login", api.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(api.tokens, api.store))
			r.Get("/user", api.GetUserHandler)
		})
	})
}

// Serve blocks, listening on the configured address.
func (api *Api) Serve() error {
	addr := fmt.Sprintf("%s:%d", api.Config.Host, api.Config.Port)
	log.Printf("Starting API server on %s", addr)
	return http.ListenAndServe(addr, api.Router)
}

func (api *Api) Heartbeat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
