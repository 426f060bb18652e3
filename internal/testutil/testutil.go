package testutil

import (
	"bytes"
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s; s=1.0 gives standard Zipf, larger s a heavier head.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Terms returns n unique keys of 1 to maxLen lowercase letters in
// ascending byte order. n must not exceed the number of such keys.
func (r *RNG) Terms(n, maxLen int) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, n)
	terms := make([][]byte, 0, n)
	for len(terms) < n {
		key := make([]byte, 1+r.rand.Intn(maxLen))
		for i := range key {
			key[i] = byte('a' + r.rand.Intn(26))
		}
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		terms = append(terms, key)
	}
	slices.SortFunc(terms, bytes.Compare)
	return terms
}

// Subset keeps each term with probability p, preserving order.
func (r *RNG) Subset(terms [][]byte, p float64) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out [][]byte
	for _, t := range terms {
		if r.rand.Float64() < p {
			out = append(out, t)
		}
	}
	return out
}

// DocFreqs returns n Zipf-distributed document frequencies in [1, maxDF].
func (r *RNG) DocFreqs(n, maxDF int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(1 + r.zipfLocked(maxDF, 1.2))
	}
	return out
}

// Multiples returns n values base + step*k with k uniform in [0, maxK).
func (r *RNG) Multiples(n int, base, step uint64, maxK int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint64, n)
	for i := range out {
		out[i] = base + step*uint64(r.rand.Intn(maxK))
	}
	return out
}

// Sparse zeroes each value with probability missingRate, in place.
// Zero marks an absent value in a column.
func (r *RNG) Sparse(values []uint64, missingRate float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range values {
		if r.rand.Float64() < missingRate {
			values[i] = 0
		}
	}
	return values
}

// Deletes returns the ascending doc ids in [0, numDocs) picked with
// probability rate.
func (r *RNG) Deletes(numDocs uint32, rate float64) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []uint32
	for doc := range numDocs {
		if r.rand.Float64() < rate {
			out = append(out, doc)
		}
	}
	return out
}
