// Package handler exposes participant registration, ticket lookup and the
// availability view over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rifa/internal/platform/middleware"
	"rifa/internal/registry/models"
	"rifa/internal/registry/service"
	"rifa/internal/transport/http/shared"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, fullName, contact string, number int) (*models.Participant, error)
	LookupByContact(ctx context.Context, contact string) ([]*models.Participant, error)
	Remove(ctx context.Context, id domain.ParticipantID) error
	Availability(ctx context.Context) (*service.Availability, error)
}

// Handler handles participant endpoints.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Register mounts the public participant routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/raffle/participants", h.handleRegister)
	r.Get("/raffle/participants", h.handleLookup)
	r.Get("/raffle/availability", h.handleAvailability)
}

// RegisterOperator mounts the routes that require an operator token.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Delete("/raffle/participants/{id}", h.handleRemove)
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Contact  string `json:"contact"`
	Number   int    `json:"number"`
}

type participantResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Contact      string    `json:"contact"`
	Number       int       `json:"number"`
	Origin       string    `json:"origin"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toParticipantResponse(p *models.Participant) participantResponse {
	return participantResponse{
		ID:           p.ID.String(),
		FullName:     p.FullName,
		Contact:      p.Contact.String(),
		Number:       p.Number,
		Origin:       string(p.Origin),
		RegisteredAt: p.RegisteredAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	participant, err := h.registry.Register(ctx, req.FullName, req.Contact, req.Number)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) || dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	contact := r.URL.Query().Get("contact")
	if contact == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "contact query parameter is required"))
		return
	}

	rows, err := h.registry.LookupByContact(r.Context(), contact)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]participantResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toParticipantResponse(p))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"participants": out})
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.registry.Availability(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "availability read failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}

	claimed := availability.Claimed
	if claimed == nil {
		claimed = []int{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"pool_size":         availability.PoolSize,
		"claimed":           claimed,
		"available_count":   availability.PoolSize - len(claimed),
		"participant_count": availability.ParticipantCount,
	})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid participant id"))
		return
	}

	if err := h.registry.Remove(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
