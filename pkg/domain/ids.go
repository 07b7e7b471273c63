// Package domain holds the identifier and value types shared by every raffle
// feature package.
package domain

import "github.com/google/uuid"

// ParticipantID identifies one participant row, which is one ticket.
type ParticipantID uuid.UUID

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.New())
}

func ParseParticipantID(s string) (ParticipantID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ParticipantID{}, err
	}
	return ParticipantID(id), nil
}

func (id ParticipantID) String() string {
	return uuid.UUID(id).String()
}

func (id ParticipantID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// RequestID identifies one extra-number request.
type RequestID uuid.UUID

func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

func ParseRequestID(s string) (RequestID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(id), nil
}

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

func (id RequestID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// OutcomeID identifies the cycle's draw outcome row.
type OutcomeID uuid.UUID

func NewOutcomeID() OutcomeID {
	return OutcomeID(uuid.New())
}

func (id OutcomeID) String() string {
	return uuid.UUID(id).String()
}
