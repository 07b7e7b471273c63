// Package http assembles the raffle API surface: public registration and
// availability routes, token-guarded operator routes, and the operational
// endpoints.
package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cycleHandler "rifa/internal/cycle/handler"
	drawHandler "rifa/internal/draw/handler"
	extrasHandler "rifa/internal/extras/handler"
	"rifa/internal/platform/metrics"
	"rifa/internal/platform/middleware"
	"rifa/internal/platform/redis"
	registryHandler "rifa/internal/registry/handler"
)

// Handlers collects the feature handlers the router mounts.
type Handlers struct {
	Registry *registryHandler.Handler
	Extras   *extrasHandler.Handler
	Draw     *drawHandler.Handler
	Cycle    *cycleHandler.Handler
}

// Deps carries the cross-cutting collaborators.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.TokenValidator
	DB        *sql.DB
	Redis     *redis.Client
}

// NewRouter wires middleware, feature routes and operational endpoints.
func NewRouter(h Handlers, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(deps.Metrics))

	r.Group(func(public chi.Router) {
		h.Registry.Register(public)
		h.Extras.Register(public)
		h.Draw.Register(public)
	})

	r.Group(func(op chi.Router) {
		op.Use(middleware.RequireOperator(deps.Validator, deps.Logger))
		h.Registry.RegisterOperator(op)
		h.Extras.RegisterOperator(op)
		h.Draw.RegisterOperator(op)
		h.Cycle.RegisterOperator(op)
	})

	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// healthHandler reports liveness plus the state of each backing service. The
// endpoint stays 200 as long as the process serves; degraded dependencies are
// reported in the body.
func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["database"] = "unhealthy"
			} else {
				checks["database"] = "ok"
			}
		} else {
			checks["database"] = "memory"
		}

		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				checks["redis"] = "unhealthy"
			} else {
				checks["redis"] = "ok"
			}
		} else {
			checks["redis"] = "disabled"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		body := `{"status":"ok","checks":{"database":"` + checks["database"] + `","redis":"` + checks["redis"] + `"}}`
		_, _ = w.Write([]byte(body))
	}
}
