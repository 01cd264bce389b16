// Package api exposes the deploy webhook and job-run records over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"samsonjenkins/internal/api/handlers"
	"samsonjenkins/internal/api/middleware"
	"samsonjenkins/internal/config"
	"samsonjenkins/internal/engine"
	"samsonjenkins/internal/logger"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Store is the persistence the API reads and checks
type Store interface {
	handlers.DeployLister
	handlers.JobRunStore
	Ping(ctx context.Context) error
}

// NewRouter wires handlers, middleware and routes
func NewRouter(cfg config.Config, deployer handlers.Deployer, store Store, ci engine.CIEngine) http.Handler {
	deployHandler := handlers.NewDeployHandler(deployer, store)
	jobHandler := handlers.NewJobHandler(store, ci)
	auth := middleware.NewAuthMiddleware(cfg.API)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LimitBodySize(cfg.Server.MaxBodySize))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Samson Jenkins API",
			"version": Version,
			"endpoints": []string{
				"/health - Health check",
				"/metrics - Prometheus metrics",
				"/api/v1/deploys - Trigger the Jenkins jobs of a finished deploy",
				"/api/v1/deploys/{deployID}/jobs - Job runs of a deploy",
				"/api/v1/jobs - Job runs",
				"/api/v1/jobs/{id}/status - Live Jenkins status of a job run",
			},
		})
	})
	r.Get("/health", health(store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/deploys", deployHandler.CreateDeploy)
		r.Get("/deploys/{deployID}/jobs", deployHandler.ListDeployJobs)
		r.Get("/jobs", jobHandler.ListJobs)
		r.Get("/jobs/{id}/status", jobHandler.GetJobStatus)
	})

	return r
}

func health(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err, "request_id", middleware.GetRequestID(r))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
