// Package rngseed derives the deterministic, per-scenario PRNG seed used by
// unguided (random) site selection. spec.md §9's "Global RNG" design note
// calls for an explicit, deterministic seed rather than a process-wide or
// externally sourced PRNG, so every replicate's generator is seeded from
// the scenario's own parameters instead of ambient entropy.
package rngseed

import (
	"math"

	"github.com/reeflab/coralmcda/internal/scenario"
)

// Derive computes the seed for a scenario's unguided site-selection PRNG:
// the sum of the integer cast of its first 24 parameter fields, per
// spec.md §5. Running this twice on identical Params always yields the
// same seed, which is what lets a batch re-run reproduce exactly.
func Derive(p scenario.Params) int64 {
	fields := p.SeedFields()
	var sum int64
	for _, f := range fields {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		sum += int64(f)
	}
	return sum
}
