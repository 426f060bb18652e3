// Package testutil generates deterministic test data for lexseg: sorted
// term sets, Zipf-distributed document frequencies, columns with a common
// divisor and sparse delete sets.
//
//	rng := testutil.NewRNG(42)
//	terms := rng.Terms(1000, 8)          // unique, sorted
//	subset := rng.Subset(terms, 0.3)     // still sorted
//	col := rng.Multiples(500, 1_000, 15, 64)
//
// This package is intended for use in tests and benchmarks only.
package testutil
