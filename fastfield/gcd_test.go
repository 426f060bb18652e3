package fastfield

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findGCD(values ...uint64) (uint64, bool) {
	return FindGCD(slices.Values(values))
}

func TestComputeGCD(t *testing.T) {
	cases := []struct {
		large, small, want uint64
	}{
		{1, 4, 1},
		{2, 4, 2},
		{10, 25, 5},
		{25, 25, 25},
		{1 << 63, 1 << 40, 1 << 40},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, computeGCD(c.large, c.small))
		assert.Equal(t, c.want, computeGCD(c.small, c.large))
	}
}

func TestFindGCD(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		_, ok := findGCD()
		assert.False(t, ok)
		_, ok = findGCD(0)
		assert.False(t, ok)
		_, ok = findGCD(0, 0)
		assert.False(t, ok)
	})

	t.Run("zero is skipped", func(t *testing.T) {
		for _, values := range [][]uint64{{0, 10}, {10, 0}} {
			gcd, ok := findGCD(values...)
			require.True(t, ok)
			assert.Equal(t, uint64(10), gcd)
		}
		gcd, ok := findGCD(0, 5, 5, 5)
		require.True(t, ok)
		assert.Equal(t, uint64(5), gcd)
	})

	t.Run("common divisor", func(t *testing.T) {
		gcd, ok := findGCD(15, 30, 5, 10)
		require.True(t, ok)
		assert.Equal(t, uint64(5), gcd)
	})

	t.Run("coprime", func(t *testing.T) {
		gcd, ok := findGCD(15, 16, 10)
		require.True(t, ok)
		assert.Equal(t, uint64(1), gcd)
	})

	t.Run("one first", func(t *testing.T) {
		gcd, ok := findGCD(1, 1000)
		require.True(t, ok)
		assert.Equal(t, uint64(1), gcd)
	})

	t.Run("short circuit stops consuming", func(t *testing.T) {
		consumed := 0
		seq := func(yield func(uint64) bool) {
			for _, v := range []uint64{6, 10, 15, 7, 21} {
				consumed++
				if !yield(v) {
					return
				}
			}
		}
		gcd, ok := FindGCD(seq)
		require.True(t, ok)
		assert.Equal(t, uint64(1), gcd)
		assert.Equal(t, 3, consumed)
	})
}

func TestFindGCD_Maximal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		factor := rng.Uint64N(1<<20) + 1
		values := make([]uint64, rng.IntN(50)+1)
		for j := range values {
			if rng.IntN(8) == 0 {
				continue // leave a zero
			}
			values[j] = factor * (rng.Uint64N(1<<30) + 1)
		}

		var want uint64
		for _, v := range values {
			if v == 0 {
				continue
			}
			if want == 0 {
				want = v
				continue
			}
			want = computeGCD(v, want)
		}

		gcd, ok := findGCD(values...)
		if want == 0 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, want, gcd)
		for _, v := range values {
			assert.Zero(t, v%gcd)
		}
	}
}
