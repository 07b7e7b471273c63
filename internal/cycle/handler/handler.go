// Package handler exposes the cycle reset to operators.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rifa/internal/platform/middleware"
	"rifa/internal/transport/http/shared"
	dErrors "rifa/pkg/domain-errors"
)

// Service defines the reset operation the handler needs.
type Service interface {
	Reset(ctx context.Context) error
}

// Handler handles the cycle endpoints.
type Handler struct {
	cycle  Service
	logger *slog.Logger
}

func New(cycle Service, logger *slog.Logger) *Handler {
	return &Handler{cycle: cycle, logger: logger}
}

// RegisterOperator mounts the reset trigger.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Post("/raffle/reset", h.handleReset)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.cycle.Reset(ctx); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "cycle reset failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
