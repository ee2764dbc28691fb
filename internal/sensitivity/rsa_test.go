package sensitivity

import (
	"math/rand"
	"testing"
)

func TestRSAMarksMissingWhenTooFewDistinctOutputs(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 50
	x := syntheticInputs(n, 1, rng)
	y := make([]float64, n)
	for i := range y {
		y[i] = 3.0 // every output identical: every slice has < 2 distinct values
	}

	cells := RSA(x, y, 5)
	for s := range cells {
		for col := range cells[s] {
			if !cells[s][col].Missing {
				t.Fatalf("slice %d factor %d: expected missing for constant output, got %+v", s, col, cells[s][col])
			}
		}
	}
}

func TestRSAColumnNormalizedMaxIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	n := 600
	x := syntheticInputs(n, 2, rng)
	y := make([]float64, n)
	for i := range y {
		if x[i][0] > 0.5 {
			y[i] = 10 + rng.Float64()
		} else {
			y[i] = rng.Float64()
		}
	}

	cells := RSA(x, y, DefaultSlices)
	for col := 0; col < 2; col++ {
		max := 0.0
		anyPresent := false
		for s := range cells {
			if !cells[s][col].Missing {
				anyPresent = true
				if cells[s][col].Value > max {
					max = cells[s][col].Value
				}
				if cells[s][col].Value < 0 {
					t.Fatalf("slice %d factor %d: negative RSA value %f", s, col, cells[s][col].Value)
				}
			}
		}
		if anyPresent && max > 1.0001 {
			t.Fatalf("factor %d: expected column-normalized max <= 1, got %f", col, max)
		}
	}
}
