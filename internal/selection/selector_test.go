package selection

import (
	"testing"

	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/scenario"
	"gonum.org/v1/gonum/mat"
)

func testDomain(t *testing.T) *domain.Domain {
	t.Helper()
	locs := []domain.Location{
		{SiteID: "a", UniqueID: "a", Area: 100, DepthMed: 5, K: 0.5, Centroid: domain.LonLat{Lon: 0, Lat: 0}},
		{SiteID: "b", UniqueID: "b", Area: 100, DepthMed: 6, K: 0.5, Centroid: domain.LonLat{Lon: 0.01, Lat: 0}},
		{SiteID: "c", UniqueID: "c", Area: 100, DepthMed: 7, K: 0.5, Centroid: domain.LonLat{Lon: 1, Lat: 1}},
		{SiteID: "d", UniqueID: "d", Area: 100, DepthMed: 20, K: 0.5, Centroid: domain.LonLat{Lon: 2, Lat: 2}},
	}
	conn := mat.NewDense(4, 4, []float64{
		0, 0.2, 0.1, 0,
		0.1, 0, 0.1, 0,
		0.1, 0.1, 0, 0,
		0, 0, 0, 0,
	})
	species := make([]domain.SpeciesBin, domain.NBins)
	taxa := []string{"tabular_acropora", "corymbose_acropora", "massive_porites", "digitate_acropora", "other_a", "other_b"}
	for i := range species {
		species[i] = domain.SpeciesBin{
			Taxon:            taxa[i/6],
			SizeClass:        i%6 + 1,
			GrowthRate:       0.1,
			MortalityRate:    0.05,
			BleachResistance: 0.5,
			ColonyAreaM2:     0.01,
			FecundityPerM2:   10,
			WaveMort90:       0.2,
		}
	}
	dom, err := domain.New(locs, conn, species, 10, 2, domain.Timing{})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	return dom
}

func testParams() scenario.Params {
	return scenario.Params{
		MCDAMethod:         scenario.MCDAOrderSum,
		DepthMin:           0,
		DepthOffset:        10,
		SeedVolumePerTaxon: [2]float64{100, 100},
		Weights: scenario.Weights{
			InConnectivity: 1,
			Heat:           1,
			SeedPriority:   1,
		},
		Spread: scenario.SpreadSettings{Enable: false},
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	dom := testDomain(t)
	params := testParams()
	sel := NewSelector(dom, nil)
	cover := make([]float64, domain.NBins*dom.N())
	dhw := []float64{0.1, 0.2, 0.3, 0.4}
	wave := []float64{0.1, 0.1, 0.1, 0.1}

	first, err := sel.Select(params, SeedIntent, 0, cover, dhw, wave, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	second, err := sel.Select(params, SeedIntent, 0, cover, dhw, wave, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d: %d != %d, selection is not deterministic", i, first[i], second[i])
		}
	}
}

func TestSelectRespectsDepthFilter(t *testing.T) {
	dom := testDomain(t)
	params := testParams()
	params.DepthOffset = 5 // excludes location "d" (depth 20)
	sel := NewSelector(dom, nil)
	cover := make([]float64, domain.NBins*dom.N())
	dhw := []float64{0.1, 0.2, 0.3, 0.9}
	wave := []float64{0.1, 0.1, 0.1, 0.9}

	got, err := sel.Select(params, SeedIntent, 0, cover, dhw, wave, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, idx := range got {
		if idx == 3 {
			t.Errorf("location index 3 exceeds depth filter and should never be selected, got %v", got)
		}
	}
}

func TestDepthFilterWaivesWhenWindowEmpty(t *testing.T) {
	dom := testDomain(t)
	sel := NewSelector(dom, nil)
	params := testParams()
	params.DepthMin = 100 // no location satisfies this
	params.DepthOffset = 1

	got := sel.depthFilter(params)
	if len(got) != dom.N() {
		t.Fatalf("expected depth filter waived (all %d locations retained), got %v", dom.N(), got)
	}
}

func TestSelectRetainsAllLocationsWhenDepthWindowEmpty(t *testing.T) {
	dom := testDomain(t)
	params := testParams()
	params.DepthMin = 100 // no location satisfies this
	params.DepthOffset = 1
	sel := NewSelector(dom, nil)
	cover := make([]float64, domain.NBins*dom.N())
	dhw := []float64{0.1, 0.2, 0.3, 0.4}
	wave := []float64{0.1, 0.1, 0.1, 0.1}

	got, err := sel.Select(params, SeedIntent, 0, cover, dhw, wave, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != dom.NInterventionSites {
		t.Fatalf("expected %d selections, got %d", dom.NInterventionSites, len(got))
	}
	real := 0
	for _, idx := range got {
		if idx != -1 {
			real++
		}
	}
	if real == 0 {
		t.Fatalf("expected the waived depth filter to let ranking proceed and select real sites, got all unfilled: %v", got)
	}
}

func TestSelectZeroFillsWhenCandidatesSurviveDepthButNotRisk(t *testing.T) {
	dom := testDomain(t)
	params := testParams()
	rules := []mcda.ToleranceRule{{Criterion: "heat_prob", Op: "<", Threshold: 0}} // no candidate's heat_prob is below 0
	sel := NewSelector(dom, rules)
	cover := make([]float64, domain.NBins*dom.N())
	dhw := []float64{0.1, 0.2, 0.3, 0.4}
	wave := []float64{0.1, 0.1, 0.1, 0.1}

	got, err := sel.Select(params, SeedIntent, 0, cover, dhw, wave, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != dom.NInterventionSites {
		t.Fatalf("expected %d zero-filled slots, got %d", dom.NInterventionSites, len(got))
	}
	for _, idx := range got {
		if idx != -1 {
			t.Errorf("expected all slots unfilled (-1) once the risk filter empties the candidate pool, got %v", got)
		}
	}
}

func TestRotationFilterWaivesWhenPoolWouldEmpty(t *testing.T) {
	candidates := []int{0, 1}
	prev := map[int]bool{0: true, 1: true}
	got := rotationFilter(candidates, prev, 4)
	if len(got) != 2 {
		t.Fatalf("expected rotation rule waived (unfiltered pool returned), got %v", got)
	}
}

func TestRotationFilterExcludesPreviouslySelected(t *testing.T) {
	candidates := []int{0, 1, 2}
	prev := map[int]bool{0: true}
	got := rotationFilter(candidates, prev, 4)
	for _, idx := range got {
		if idx == 0 {
			t.Errorf("expected location 0 excluded by rotation rule, got %v", got)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 remaining candidates, got %v", got)
	}
}
