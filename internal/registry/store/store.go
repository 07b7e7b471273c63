// Package store provides the participant persistence layer: an in-memory
// twin for unit tests and a PostgreSQL implementation for production. Both
// report the same sentinel errors so services translate uniformly.
package store

import (
	"errors"
	"fmt"

	"rifa/pkg/platform/sentinel"
)

// Conflict sentinels distinguish which uniqueness invariant an insert hit.
// Both wrap sentinel.ErrConflict so generic conflict handling still works.
var (
	ErrNumberTaken   = fmt.Errorf("ticket number already claimed: %w", sentinel.ErrConflict)
	ErrContactTaken  = fmt.Errorf("contact already directly registered: %w", sentinel.ErrConflict)
	errParticipantID = errors.New("participant id is required")
)
