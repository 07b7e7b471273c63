// Package handler exposes the extra-number request workflow over HTTP: public
// proof upload and submission, operator listing and decisions.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rifa/internal/extras/models"
	"rifa/internal/platform/middleware"
	registrymodels "rifa/internal/registry/models"
	"rifa/internal/transport/http/shared"
	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

// Service defines the extras workflow operations the handler needs.
type Service interface {
	Submit(ctx context.Context, requesterName, contact string, amount int, proofRef string) (*models.ExtraNumberRequest, error)
	Approve(ctx context.Context, id domain.RequestID) ([]*registrymodels.Participant, error)
	Reject(ctx context.Context, id domain.RequestID) error
	List(ctx context.Context, status models.Status) ([]*models.ExtraNumberRequest, error)
}

// ProofStore stores uploaded payment proofs and returns their references.
type ProofStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Handler handles extra-request endpoints.
type Handler struct {
	extras Service
	proofs ProofStore
	logger *slog.Logger
}

func New(extras Service, proofs ProofStore, logger *slog.Logger) *Handler {
	return &Handler{extras: extras, proofs: proofs, logger: logger}
}

// Register mounts the public routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/raffle/proofs", h.handleUploadProof)
	r.Post("/raffle/extras", h.handleSubmit)
}

// RegisterOperator mounts the routes that require an operator token.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Get("/raffle/extras", h.handleList)
	r.Post("/raffle/extras/{id}/approve", h.handleApprove)
	r.Post("/raffle/extras/{id}/reject", h.handleReject)
}

type submitRequest struct {
	RequesterName string `json:"requester_name"`
	Contact       string `json:"contact"`
	Amount        int    `json:"amount"`
	ProofRef      string `json:"proof_ref"`
}

type requestResponse struct {
	ID            string    `json:"id"`
	RequesterName string    `json:"requester_name"`
	Contact       string    `json:"contact"`
	Amount        int       `json:"amount"`
	TicketCount   int       `json:"ticket_count"`
	ProofRef      string    `json:"proof_ref"`
	Status        string    `json:"status"`
	ChosenNumbers []int     `json:"chosen_numbers,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRequestResponse(r *models.ExtraNumberRequest) requestResponse {
	return requestResponse{
		ID:            r.ID.String(),
		RequesterName: r.RequesterName,
		Contact:       r.Contact.String(),
		Amount:        r.Amount,
		TicketCount:   r.TicketCount,
		ProofRef:      r.ProofRef,
		Status:        string(r.Status),
		ChosenNumbers: r.ChosenNumbers,
		CreatedAt:     r.CreatedAt,
	}
}

// handleUploadProof accepts a multipart upload under the "proof" field and
// returns the reference to cite in a subsequent submission.
func (h *Handler) handleUploadProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("proof")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "multipart field 'proof' is required"))
		return
	}
	defer file.Close()

	ref, err := h.proofs.Save(ctx, header.Filename, file)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			h.logger.ErrorContext(ctx, "proof upload failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store proof"))
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]string{"proof_ref": ref})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	request, err := h.extras.Submit(ctx, req.RequesterName, req.Contact, req.Amount, req.ProofRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toRequestResponse(request))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))

	requests, err := h.extras.List(r.Context(), status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request id"))
		return
	}

	created, err := h.extras.Approve(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			h.logger.ErrorContext(ctx, "approval failed",
				"request_id", middleware.GetRequestID(ctx),
				"extra_request_id", id.String(),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	numbers := make([]int, 0, len(created))
	for _, p := range created {
		numbers = append(numbers, p.Number)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"request_id":     id.String(),
		"chosen_numbers": numbers,
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request id"))
		return
	}

	if err := h.extras.Reject(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
