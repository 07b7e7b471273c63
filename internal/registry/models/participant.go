package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

// Origin records how a ticket row came to exist. Every ticket is an equal
// Participant row; uniqueness and draw weighting never special-case extras.
type Origin string

const (
	// OriginDirect marks the single free registration a contact may make.
	OriginDirect Origin = "direct"
	// OriginExtra marks rows created by the approved-extras workflow.
	OriginExtra Origin = "extra"
)

// Participant is one raffle entry: a ticket number bound to a contact.
// Rows are immutable after creation.
type Participant struct {
	ID           domain.ParticipantID
	FullName     string
	Contact      domain.Contact
	Number       int
	Origin       Origin
	RegisteredAt time.Time
}

// NewParticipant validates and constructs a participant row. maxNumber is N,
// the upper bound of the ticket range.
func NewParticipant(id domain.ParticipantID, fullName string, contact domain.Contact, number, maxNumber int, origin Origin, now time.Time) (*Participant, error) {
	fullName = strings.Join(strings.Fields(fullName), " ")
	if len(strings.Fields(fullName)) < 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "full name must contain at least two words")
	}
	if !govalidator.StringLength(fullName, "5", "120") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "full name length out of range")
	}
	if contact.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact is required")
	}
	if number < 1 || number > maxNumber {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ticket number out of range")
	}
	if origin != OriginDirect && origin != OriginExtra {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown participant origin")
	}
	return &Participant{
		ID:           id,
		FullName:     fullName,
		Contact:      contact,
		Number:       number,
		Origin:       origin,
		RegisteredAt: now,
	}, nil
}
