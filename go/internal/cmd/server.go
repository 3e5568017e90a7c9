package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/config"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/league"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"Content-Type", league.TokenHeader},
	})

	// Register services
	services.Gateway.RegisterRoutes(r)
	services.League.RegisterRoutes(r)

	setupHealthCheck(r, services)

	// Wrap with CORS
	handler := c.Handler(r)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

func setupHealthCheck(r chi.Router, services *Services) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	r.Method(http.MethodGet, "/health/race", services.Health)

	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		stats := services.Gateway.GetStats()
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"service":         "road2royalty",
			"backend_profile": services.Profile.Profile,
			"backend_url":     services.Profile.BaseURL,
			"race_poller":     services.Poller.Stats(),
			"connections":     stats.TotalConnections,
			"race_events":     services.Metrics.Stats(),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})
}
