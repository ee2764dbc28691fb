package sensitivity

import (
	"math"
	"math/rand"
	"testing"
)

func TestTwoSampleKSZeroForIdenticalSamples(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{1, 2, 3, 4, 5}
	if d := twoSampleKS(a, b); d != 0 {
		t.Fatalf("expected 0 for identical samples, got %f", d)
	}
}

func TestTwoSampleKSMaximalForDisjointSamples(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{10, 10, 10}
	if d := twoSampleKS(a, b); d != 1 {
		t.Fatalf("expected 1 for fully disjoint samples, got %f", d)
	}
}

func TestAndersonDarlingKTooSmallSampleIsMissing(t *testing.T) {
	if _, ok := andersonDarlingK([]float64{1}, []float64{2, 3}); ok {
		t.Fatal("expected missing for a 1-element sample")
	}
}

func TestAndersonDarlingKFiniteForDifferentDistributions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = rng.Float64()
		b[i] = rng.Float64() + 5
	}
	stat, ok := andersonDarlingK(a, b)
	if !ok {
		t.Fatal("expected a valid statistic for two well-separated samples")
	}
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		t.Fatalf("expected a finite statistic, got %f", stat)
	}
}

func TestQuantileBoundariesMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	col := make([]float64, 100)
	for i := range col {
		col[i] = rng.Float64()
	}
	bounds := quantileBoundaries(col, 10)
	for i := 1; i < len(bounds); i++ {
		if bounds[i] < bounds[i-1] {
			t.Fatalf("boundaries not monotonic at index %d: %v", i, bounds)
		}
	}
}
