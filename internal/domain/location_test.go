package domain

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testSpecies() []SpeciesBin {
	taxa := []string{"tabular_acropora", "corymbose_acropora", "massive_porites", "encrusting", "soft_coral", "branching_pocillopora"}
	species := make([]SpeciesBin, 0, NBins)
	for _, taxon := range taxa {
		for sc := 1; sc <= 6; sc++ {
			species = append(species, SpeciesBin{
				Taxon:            taxon,
				SizeClass:        sc,
				GrowthRate:       0.1,
				MortalityRate:    0.05,
				BleachResistance: 0.5,
				ColonyAreaM2:     0.02,
				FecundityPerM2:   10,
			})
		}
	}
	return species
}

func TestNewDomainValidatesShapes(t *testing.T) {
	locs := []Location{
		{SiteID: "a", K: 0.4, Centroid: LonLat{0, 0}},
		{SiteID: "b", K: 0.4, Centroid: LonLat{1, 1}},
	}
	bad := mat.NewDense(3, 3, nil)
	if _, err := New(locs, bad, testSpecies(), 10, 5, Timing{}); err == nil {
		t.Fatal("expected shape mismatch error for wrong connectivity dims")
	}

	tooHighRowSum := mat.NewDense(2, 2, []float64{0.9, 0.9, 0.1, 0.1})
	if _, err := New(locs, tooHighRowSum, testSpecies(), 10, 5, Timing{}); err == nil {
		t.Fatal("expected shape mismatch error for row sum > 1")
	}

	if _, err := New(locs, mat.NewDense(2, 2, nil), species2(), 10, 5, Timing{}); err == nil {
		t.Fatal("expected shape mismatch error for wrong species count")
	}
}

func species2() []SpeciesBin {
	return []SpeciesBin{{Taxon: "x", SizeClass: 1}}
}

func TestConnectivityDerivatives(t *testing.T) {
	locs := []Location{
		{SiteID: "a", K: 0.4, Centroid: LonLat{0, 0}},
		{SiteID: "b", K: 0.4, Centroid: LonLat{1, 1}},
		{SiteID: "c", K: 0.4, Centroid: LonLat{2, 2}},
	}
	// location 2 (index 2) receives most of its inflow from location 0.
	conn := mat.NewDense(3, 3, []float64{
		0.1, 0.1, 0.3,
		0.0, 0.1, 0.0,
		0.0, 0.0, 0.1,
	})
	d, err := New(locs, conn, testSpecies(), 10, 5, Timing{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.StrongestPredecessor[2] != 0 {
		t.Errorf("expected location 2's strongest predecessor to be 0, got %d", d.StrongestPredecessor[2])
	}
	if d.ConnectivityRank[2] <= d.ConnectivityRank[1] {
		t.Errorf("expected location 2 to rank above location 1: %v", d.ConnectivityRank)
	}
}

func TestMedianPairwiseDistance(t *testing.T) {
	locs := []Location{
		{SiteID: "a", K: 0.4, Centroid: LonLat{0, 0}},
		{SiteID: "b", K: 0.4, Centroid: LonLat{0, 1}},
		{SiteID: "c", K: 0.4, Centroid: LonLat{0, 2}},
	}
	d, err := New(locs, mat.NewDense(3, 3, nil), testSpecies(), 10, 5, Timing{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.MedianPairwiseDistance() <= 0 {
		t.Errorf("expected positive median distance, got %f", d.MedianPairwiseDistance())
	}
}

func TestEnhancedSeedBins(t *testing.T) {
	d, err := New(
		[]Location{{SiteID: "a", K: 0.4}},
		mat.NewDense(1, 1, nil),
		testSpecies(),
		10, 5, Timing{},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bins := d.EnhancedSeedBins()
	if len(bins) != 2 {
		t.Fatalf("expected 2 enhanced seed bins, got %d", len(bins))
	}
	for _, b := range bins {
		if d.Species[b].SizeClass != 2 {
			t.Errorf("enhanced bin %d has size class %d, want 2", b, d.Species[b].SizeClass)
		}
	}
}
