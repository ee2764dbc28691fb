package sensitivity

import (
	"math/rand"
	"testing"
)

func TestOutcomeMapEmptyBehavioralSetIsAllMissing(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 50
	x := syntheticInputs(n, 2, rng)
	y := make([]float64, n)
	for i := range y {
		y[i] = 1.0
	}
	neverBehavioral := func(v float64) bool { return false }

	cells := OutcomeMap(x, y, neverBehavioral, DefaultSlices, DefaultResamples, DefaultCI, rng)
	for s := range cells {
		for col := range cells[s] {
			if !cells[s][col].Missing {
				t.Fatalf("slice %d factor %d: expected missing when no outcome is behavioral", s, col)
			}
		}
	}
}

func TestOutcomeMapBoundsAreOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	n := 400
	x := syntheticInputs(n, 1, rng)
	y := make([]float64, n)
	for i := range y {
		y[i] = rng.Float64()
	}
	topHalf := func(v float64) bool { return v > 0.5 }

	cells := OutcomeMap(x, y, topHalf, DefaultSlices, 200, 0.95, rng)
	for s := range cells {
		for col := range cells[s] {
			c := cells[s][col]
			if c.Missing {
				continue
			}
			if c.LowerCI > c.Mean+1e-9 || c.Mean > c.UpperCI+1e-9 {
				t.Fatalf("slice %d factor %d: expected LowerCI <= Mean <= UpperCI, got %+v", s, col, c)
			}
			if c.Mean < -1e-9 || c.Mean > 1+1e-9 {
				t.Fatalf("slice %d factor %d: mean behavioral fraction out of [0,1]: %f", s, col, c.Mean)
			}
		}
	}
}
