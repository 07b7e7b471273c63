package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

func TestNewParticipant(t *testing.T) {
	contact, _ := domain.ParseContact("(11) 98765-4321")
	now := time.Now()

	t.Run("valid direct registration", func(t *testing.T) {
		p, err := NewParticipant(domain.NewParticipantID(), "Maria Silva", contact, 42, 1000, OriginDirect, now)
		require.NoError(t, err)
		assert.Equal(t, "Maria Silva", p.FullName)
		assert.Equal(t, 42, p.Number)
		assert.Equal(t, OriginDirect, p.Origin)
		assert.Equal(t, now, p.RegisteredAt)
	})

	t.Run("collapses repeated whitespace in the name", func(t *testing.T) {
		p, err := NewParticipant(domain.NewParticipantID(), "  Maria   Silva ", contact, 1, 1000, OriginDirect, now)
		require.NoError(t, err)
		assert.Equal(t, "Maria Silva", p.FullName)
	})

	t.Run("single-word name rejected", func(t *testing.T) {
		_, err := NewParticipant(domain.NewParticipantID(), "Maria", contact, 1, 1000, OriginDirect, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("number bounds", func(t *testing.T) {
		for _, number := range []int{0, -1, 1001} {
			_, err := NewParticipant(domain.NewParticipantID(), "Maria Silva", contact, number, 1000, OriginDirect, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "number %d", number)
		}
		for _, number := range []int{1, 1000} {
			_, err := NewParticipant(domain.NewParticipantID(), "Maria Silva", contact, number, 1000, OriginDirect, now)
			assert.NoError(t, err, "number %d", number)
		}
	})

	t.Run("missing contact rejected", func(t *testing.T) {
		_, err := NewParticipant(domain.NewParticipantID(), "Maria Silva", domain.Contact(""), 1, 1000, OriginDirect, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unknown origin rejected", func(t *testing.T) {
		_, err := NewParticipant(domain.NewParticipantID(), "Maria Silva", contact, 1, 1000, Origin("bogus"), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
