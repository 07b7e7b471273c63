// Package pool computes ticket number allocations. Allocate is a pure
// computation over a claimed-set snapshot; callers are responsible for
// re-validating and committing the result atomically.
package pool

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	dErrors "rifa/pkg/domain-errors"
)

// Allocator draws unclaimed ticket numbers from the fixed range [1, size].
type Allocator struct {
	size int

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(a *Allocator)

// WithRand injects a deterministic source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(a *Allocator) { a.rng = rng }
}

func New(size int, opts ...Option) *Allocator {
	a := &Allocator{size: size}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(cryptoSeed()))
	}
	return a
}

// Size returns N, the upper bound of the ticket range.
func (a *Allocator) Size() int { return a.size }

// Allocate returns count distinct numbers drawn uniformly from the complement
// of claimed within [1, size]. The returned order carries no meaning.
func (a *Allocator) Allocate(claimed []int, count int) ([]int, error) {
	if count <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "allocation count must be positive")
	}

	taken := make(map[int]struct{}, len(claimed))
	for _, n := range claimed {
		if n >= 1 && n <= a.size {
			taken[n] = struct{}{}
		}
	}

	free := make([]int, 0, a.size-len(taken))
	for n := 1; n <= a.size; n++ {
		if _, ok := taken[n]; !ok {
			free = append(free, n)
		}
	}
	if len(free) < count {
		return nil, dErrors.New(dErrors.CodeInsufficientPool, "not enough unclaimed numbers in the pool")
	}

	// Partial Fisher-Yates: after i swaps the prefix holds i uniform picks.
	a.mu.Lock()
	for i := 0; i < count; i++ {
		j := i + a.rng.Intn(len(free)-i)
		free[i], free[j] = free[j], free[i]
	}
	a.mu.Unlock()

	result := make([]int, count)
	copy(result, free[:count])
	return result, nil
}

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// Extremely unlikely; fall back to a fixed-entropy seed rather than
		// failing construction.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
