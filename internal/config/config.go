// Package config reads the two recognized environment controls spec.md
// §6 names: the replicate count and the output quantization threshold.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/reeflab/coralmcda/internal/runner"
)

// DefaultReps is used when REEFMCDA_REPS is unset.
const DefaultReps = 1

// Config holds the two environment controls spec.md §6 recognizes.
type Config struct {
	// Reps is the number of environmental replicates per scenario,
	// REEFMCDA_REPS in the environment. Must be a positive integer.
	Reps int

	// Threshold is the magnitude below which output values are stored
	// as 0, REEFMCDA_THRESHOLD in the environment.
	Threshold float64
}

// FromEnv reads Config from the process environment, applying defaults
// for unset variables.
func FromEnv() (Config, error) {
	cfg := Config{Reps: DefaultReps, Threshold: runner.DefaultEpsilon}

	if v := os.Getenv("REEFMCDA_REPS"); v != "" {
		reps, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: REEFMCDA_REPS %q is not an integer: %w", v, err)
		}
		if reps <= 0 {
			return Config{}, fmt.Errorf("config: REEFMCDA_REPS must be positive, got %d", reps)
		}
		cfg.Reps = reps
	}

	if v := os.Getenv("REEFMCDA_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: REEFMCDA_THRESHOLD %q is not a float: %w", v, err)
		}
		cfg.Threshold = threshold
	}

	return cfg, nil
}
