package pool

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rifa/pkg/domain-errors"
)

func TestAllocate(t *testing.T) {
	t.Run("returns distinct unclaimed numbers in range", func(t *testing.T) {
		a := New(100, WithRand(rand.New(rand.NewSource(1))))
		claimed := []int{1, 2, 3, 50, 100}

		got, err := a.Allocate(claimed, 10)
		require.NoError(t, err)
		require.Len(t, got, 10)

		seen := map[int]bool{}
		claimedSet := map[int]bool{}
		for _, n := range claimed {
			claimedSet[n] = true
		}
		for _, n := range got {
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 100)
			assert.False(t, seen[n], "duplicate allocation %d", n)
			assert.False(t, claimedSet[n], "allocated claimed number %d", n)
			seen[n] = true
		}
	})

	t.Run("allocates the entire remaining pool", func(t *testing.T) {
		a := New(10, WithRand(rand.New(rand.NewSource(2))))
		got, err := a.Allocate([]int{1, 2, 3}, 7)
		require.NoError(t, err)
		assert.Len(t, got, 7)
	})

	t.Run("insufficient pool", func(t *testing.T) {
		a := New(10, WithRand(rand.New(rand.NewSource(3))))
		_, err := a.Allocate([]int{1, 2, 3}, 8)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientPool))
	})

	t.Run("non-positive count", func(t *testing.T) {
		a := New(10)
		_, err := a.Allocate(nil, 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("claimed numbers outside the range are ignored", func(t *testing.T) {
		a := New(5, WithRand(rand.New(rand.NewSource(4))))
		got, err := a.Allocate([]int{-1, 0, 6, 999}, 5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, got)
	})

	t.Run("concurrent allocations do not race on the rng", func(t *testing.T) {
		a := New(1000)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := a.Allocate(nil, 10)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	})
}

func TestAllocateUniformity(t *testing.T) {
	// With one slot requested from [1,4], each number should be picked
	// roughly a quarter of the time.
	a := New(4, WithRand(rand.New(rand.NewSource(42))))
	counts := map[int]int{}
	const trials = 4000
	for i := 0; i < trials; i++ {
		got, err := a.Allocate(nil, 1)
		require.NoError(t, err)
		counts[got[0]]++
	}
	for n := 1; n <= 4; n++ {
		assert.InDelta(t, trials/4, counts[n], trials/20, "number %d", n)
	}
}
