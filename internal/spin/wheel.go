package spin

import (
	"math/rand/v2"
	"slices"
)

// DefaultMaxSpins is the number of draws allowed per set of candidates.
const DefaultMaxSpins = 3

// Wheel draws up to Max distinct candidates in random order. It is not safe
// for concurrent use; callers serialize access.
type Wheel[T comparable] struct {
	candidates []T
	selected   []T
	count      int
	max        int
	rng        *rand.Rand
}

// NewWheel returns an empty wheel. A nil rng uses the global source.
func NewWheel[T comparable](maxSpins int, rng *rand.Rand) *Wheel[T] {
	if maxSpins <= 0 {
		maxSpins = DefaultMaxSpins
	}
	return &Wheel[T]{max: maxSpins, rng: rng}
}

// Reset replaces the candidates and starts a fresh round.
func (w *Wheel[T]) Reset(candidates []T) {
	w.candidates = slices.Clone(candidates)
	w.selected = nil
	w.count = 0
}

// Restore shows an already confirmed round: the first Max tasks are
// selected and no spins remain.
func (w *Wheel[T]) Restore(tasks []T) {
	w.candidates = slices.Clone(tasks)
	w.selected = slices.Clone(tasks[:min(w.max, len(tasks))])
	w.count = w.max
}

// Draw picks one not-yet-selected candidate. It reports false and changes
// nothing when the spins are used up or nothing is left to pick.
func (w *Wheel[T]) Draw() (T, bool) {
	var zero T
	if w.count >= w.max || len(w.candidates) == 0 {
		return zero, false
	}

	remaining := make([]T, 0, len(w.candidates))
	for _, candidate := range w.candidates {
		if !slices.Contains(w.selected, candidate) {
			remaining = append(remaining, candidate)
		}
	}
	if len(remaining) == 0 {
		return zero, false
	}

	picked := remaining[w.intN(len(remaining))]
	w.selected = append(w.selected, picked)
	w.count++
	return picked, true
}

func (w *Wheel[T]) intN(n int) int {
	if w.rng == nil {
		return rand.IntN(n)
	}
	return w.rng.IntN(n)
}

func (w *Wheel[T]) Candidates() []T { return slices.Clone(w.candidates) }
func (w *Wheel[T]) Selected() []T   { return slices.Clone(w.selected) }
func (w *Wheel[T]) Count() int      { return w.count }
func (w *Wheel[T]) Max() int        { return w.max }

func (w *Wheel[T]) SpinsLeft() int {
	return max(0, w.max-w.count)
}

// CanConfirm reports whether a full round has been drawn.
func (w *Wheel[T]) CanConfirm() bool {
	return len(w.selected) >= w.max
}
