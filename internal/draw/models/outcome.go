package models

import (
	"time"

	"rifa/pkg/domain"
)

// DrawOutcome is the single irreversible result of a cycle's draw. At most
// one exists at any time; only a full cycle reset clears it.
type DrawOutcome struct {
	ID            domain.OutcomeID
	ParticipantID domain.ParticipantID
	TicketNumber  int
	FullName      string
	Contact       domain.Contact
	DrawnAt       time.Time
}
