package testutil

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerms(t *testing.T) {
	rng := NewRNG(1)
	terms := rng.Terms(500, 4)
	require.Len(t, terms, 500)
	for i := 1; i < len(terms); i++ {
		assert.Negative(t, bytes.Compare(terms[i-1], terms[i]))
	}

	subset := rng.Subset(terms, 0.5)
	assert.NotEmpty(t, subset)
	assert.Less(t, len(subset), len(terms))
	assert.True(t, slices.IsSortedFunc(subset, bytes.Compare))
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.Multiples(10, 100, 3, 50)
	rng.Reset()
	assert.Equal(t, first, rng.Multiples(10, 100, 3, 50))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestMultiples(t *testing.T) {
	rng := NewRNG(3)
	for _, v := range rng.Multiples(1000, 1_000, 15, 64) {
		assert.GreaterOrEqual(t, v, uint64(1_000))
		assert.Less(t, v, uint64(1_000+15*64))
		assert.Zero(t, (v-1_000)%15)
	}
}

func TestDocFreqsAndDeletes(t *testing.T) {
	rng := NewRNG(5)
	dfs := rng.DocFreqs(1000, 20)
	ones := 0
	for _, df := range dfs {
		assert.GreaterOrEqual(t, df, uint32(1))
		assert.LessOrEqual(t, df, uint32(20))
		if df == 1 {
			ones++
		}
	}
	assert.Greater(t, ones, 100, "zipf head dominates")

	dels := rng.Deletes(1000, 0.1)
	assert.True(t, slices.IsSorted(dels))
	assert.Greater(t, len(dels), 30)
	assert.Less(t, len(dels), 200)

	values := rng.Sparse(slices.Repeat([]uint64{9}, 1000), 0.5)
	zeros := 0
	for _, v := range values {
		if v == 0 {
			zeros++
		}
	}
	assert.Greater(t, zeros, 300)
	assert.Less(t, zeros, 700)
}

func TestZipf(t *testing.T) {
	rng := NewRNG(9)
	assert.Equal(t, 0, rng.Zipf(1, 1.0))
	for range 100 {
		v := rng.Zipf(10, 1.5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
}
