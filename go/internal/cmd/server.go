package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
)

func setupServer(config *Config, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpapi.RequestLogger)
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerServices(r, services)

	// Add health check endpoint
	setupHealthCheck(r, services.Hub)

	// Wrap with CORS
	handler := c.Handler(r)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(r chi.Router, services *Services) {
	services.Auth.RegisterRoutes(r)

	// Mutations go through the admin group
	admin := r.With(services.Auth.RequireAdmin)

	services.Auction.RegisterRoutes(r, admin)
	services.Teams.RegisterRoutes(r, admin)
	services.Players.RegisterRoutes(r, admin)
	services.WebSocket.RegisterRoutes(r)
}

type hubStats interface {
	Stats() map[string]interface{}
}

// setupHealthCheck reports liveness and the broadcast hub counters.
func setupHealthCheck(r chi.Router, hub hubStats) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"hub":    hub.Stats(),
		})
	})
}
