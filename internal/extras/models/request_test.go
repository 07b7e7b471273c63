package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifa/pkg/domain"
	dErrors "rifa/pkg/domain-errors"
)

func TestNewRequest(t *testing.T) {
	contact, _ := domain.ParseContact("(11) 98765-4321")
	now := time.Now()

	newReq := func(amount int) (*ExtraNumberRequest, error) {
		return NewRequest(domain.NewRequestID(), "Maria Silva", contact, amount, 7, 5, "proof://abc.pdf", now)
	}

	t.Run("ticket count is floor of amount over unit price times tickets per unit", func(t *testing.T) {
		cases := map[int]int{
			7:  5,  // exactly one unit
			13: 5,  // remainder discarded
			14: 10, // two units
			21: 15,
			70: 50,
		}
		for amount, want := range cases {
			r, err := newReq(amount)
			require.NoError(t, err, "amount %d", amount)
			assert.Equal(t, want, r.TicketCount, "amount %d", amount)
			assert.Equal(t, StatusPending, r.Status)
			assert.False(t, r.Completed)
		}
	})

	t.Run("amount below unit price rejected", func(t *testing.T) {
		for _, amount := range []int{0, 1, 6, -7} {
			_, err := newReq(amount)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBelowMinimum), "amount %d", amount)
		}
	})

	t.Run("missing proof reference rejected", func(t *testing.T) {
		_, err := NewRequest(domain.NewRequestID(), "Maria Silva", contact, 14, 7, 5, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("single-word requester name rejected", func(t *testing.T) {
		_, err := NewRequest(domain.NewRequestID(), "Maria", contact, 14, 7, 5, "proof://abc.pdf", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestRequestTransitions(t *testing.T) {
	contact, _ := domain.ParseContact("(11) 98765-4321")
	r, err := NewRequest(domain.NewRequestID(), "Maria Silva", contact, 14, 7, 5, "proof://abc.pdf", time.Now())
	require.NoError(t, err)

	t.Run("pending request accepts a decision", func(t *testing.T) {
		assert.NoError(t, r.CanDecide())
	})

	t.Run("approval records numbers and completes", func(t *testing.T) {
		r.ApplyApproval([]int{4, 8, 15})
		assert.Equal(t, StatusApproved, r.Status)
		assert.True(t, r.Completed)
		assert.Equal(t, []int{4, 8, 15}, r.ChosenNumbers)
	})

	t.Run("completed request refuses further decisions", func(t *testing.T) {
		err := r.CanDecide()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("rejection completes with no numbers", func(t *testing.T) {
		r2, err := NewRequest(domain.NewRequestID(), "Maria Silva", contact, 14, 7, 5, "proof://abc.pdf", time.Now())
		require.NoError(t, err)
		r2.ApplyRejection()
		assert.Equal(t, StatusRejected, r2.Status)
		assert.True(t, r2.Completed)
		assert.Nil(t, r2.ChosenNumbers)
	})
}
