// Package handler exposes the draw: operators trigger it, everyone may read
// the outcome.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rifa/internal/draw/models"
	"rifa/internal/platform/middleware"
	"rifa/internal/transport/http/shared"
	dErrors "rifa/pkg/domain-errors"
)

// Service defines the draw operations the handler needs.
type Service interface {
	Draw(ctx context.Context) (*models.DrawOutcome, error)
	Outcome(ctx context.Context) (*models.DrawOutcome, error)
}

// Handler handles draw endpoints.
type Handler struct {
	draw   Service
	logger *slog.Logger
}

func New(draw Service, logger *slog.Logger) *Handler {
	return &Handler{draw: draw, logger: logger}
}

// Register mounts the public outcome route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/raffle/draw", h.handleOutcome)
}

// RegisterOperator mounts the draw trigger.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Post("/raffle/draw", h.handleDraw)
}

type outcomeResponse struct {
	TicketNumber  int       `json:"ticket_number"`
	FullName      string    `json:"full_name"`
	Contact       string    `json:"contact"`
	ParticipantID string    `json:"participant_id"`
	DrawnAt       time.Time `json:"drawn_at"`
}

func toOutcomeResponse(o *models.DrawOutcome) outcomeResponse {
	return outcomeResponse{
		TicketNumber:  o.TicketNumber,
		FullName:      o.FullName,
		Contact:       o.Contact.String(),
		ParticipantID: o.ParticipantID.String(),
		DrawnAt:       o.DrawnAt,
	}
}

func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outcome, err := h.draw.Draw(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "draw failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toOutcomeResponse(outcome))
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.draw.Outcome(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}
