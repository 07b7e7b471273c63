package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

// Status is the workflow state of an extra-ticket request. Both terminal
// states are reached in a single operator action, so a request is never
// observably approved-but-incomplete.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ExtraNumberRequest converts a purchase proof into extra ticket numbers once
// an operator approves it. Immutable after its single transition.
type ExtraNumberRequest struct {
	ID            domain.RequestID
	RequesterName string
	Contact       domain.Contact
	Amount        int
	TicketCount   int
	ProofRef      string
	Status        Status
	Completed     bool
	ChosenNumbers []int
	CreatedAt     time.Time
}

// NewRequest validates a submission and computes the extra-ticket count:
// floor(amount / unitPrice) * ticketsPerUnit.
func NewRequest(id domain.RequestID, requesterName string, contact domain.Contact, amount, unitPrice, ticketsPerUnit int, proofRef string, now time.Time) (*ExtraNumberRequest, error) {
	requesterName = strings.Join(strings.Fields(requesterName), " ")
	if len(strings.Fields(requesterName)) < 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "requester name must contain at least two words")
	}
	if !govalidator.StringLength(requesterName, "5", "120") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "requester name length out of range")
	}
	if contact.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact is required")
	}
	if proofRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proof of payment reference is required")
	}
	if amount < unitPrice {
		return nil, dErrors.New(dErrors.CodeBelowMinimum, "purchase amount below the unit price")
	}

	return &ExtraNumberRequest{
		ID:            id,
		RequesterName: requesterName,
		Contact:       contact,
		Amount:        amount,
		TicketCount:   (amount / unitPrice) * ticketsPerUnit,
		ProofRef:      proofRef,
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// CanDecide reports whether the request still accepts an operator decision.
func (r *ExtraNumberRequest) CanDecide() error {
	if r.Status != StatusPending || r.Completed {
		return dErrors.New(dErrors.CodeInvalidState, "request already processed")
	}
	return nil
}

// ApplyApproval records the allocated numbers and completes the request.
func (r *ExtraNumberRequest) ApplyApproval(numbers []int) {
	r.Status = StatusApproved
	r.Completed = true
	r.ChosenNumbers = numbers
}

// ApplyRejection completes the request with no numbers allocated.
func (r *ExtraNumberRequest) ApplyRejection() {
	r.Status = StatusRejected
	r.Completed = true
	r.ChosenNumbers = nil
}
