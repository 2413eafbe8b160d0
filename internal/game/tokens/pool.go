package tokens

import (
	"errors"
	"fmt"
)

// ErrInsufficient is returned when taking a token type the pool does not hold.
var ErrInsufficient = errors.New("no token of that type left in pool")

// Pool counts a player's unplaced tokens per type.
// A Pool is immutable: every update returns a new value and leaves the receiver untouched.
type Pool struct {
	counts map[Type]int
}

// NewPool creates a pool from initial counts. Non-positive counts are dropped.
func NewPool(initial map[Type]int) Pool {
	counts := make(map[Type]int, len(initial))
	for t, n := range initial {
		if n > 0 {
			counts[t] = n
		}
	}
	return Pool{counts: counts}
}

// Count returns how many tokens of type t are in the pool.
func (p Pool) Count(t Type) int {
	return p.counts[t]
}

// Has reports whether at least one token of type t is available.
func (p Pool) Has(t Type) bool {
	return p.Count(t) > 0
}

// Add returns a pool with n more tokens of type t.
func (p Pool) Add(t Type, n int) Pool {
	if n <= 0 {
		return p
	}
	next := p.clone()
	next.counts[t] += n
	return next
}

// Take returns a pool with one token of type t removed.
func (p Pool) Take(t Type) (Pool, error) {
	if !p.Has(t) {
		return p, fmt.Errorf("take %s: %w", t, ErrInsufficient)
	}
	next := p.clone()
	next.counts[t]--
	if next.counts[t] == 0 {
		delete(next.counts, t)
	}
	return next, nil
}

// Counts returns a copy of the per-type counts including zero entries for every known type.
func (p Pool) Counts() map[Type]int {
	out := make(map[Type]int, len(order))
	for _, t := range order {
		out[t] = p.counts[t]
	}
	return out
}

// Total returns the number of tokens in the pool.
func (p Pool) Total() int {
	total := 0
	for _, n := range p.counts {
		total += n
	}
	return total
}

func (p Pool) clone() Pool {
	counts := make(map[Type]int, len(p.counts)+1)
	for t, n := range p.counts {
		counts[t] = n
	}
	return Pool{counts: counts}
}
