package rngseed

import (
	"testing"

	"github.com/reeflab/coralmcda/internal/scenario"
)

func TestDeriveIsDeterministic(t *testing.T) {
	p := scenario.Params{
		MCDAMethod:         scenario.MCDATOPSIS,
		SeedVolumePerTaxon: [2]float64{100, 50},
		SeedStartYear:      5,
	}
	a := Derive(p)
	b := Derive(p)
	if a != b {
		t.Fatalf("Derive not deterministic: %d != %d", a, b)
	}
}

func TestDeriveDiffersAcrossParams(t *testing.T) {
	p1 := scenario.Params{SeedStartYear: 5}
	p2 := scenario.Params{SeedStartYear: 9}
	if Derive(p1) == Derive(p2) {
		t.Fatal("expected different seeds for different params")
	}
}
