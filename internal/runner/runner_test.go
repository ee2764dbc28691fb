package runner

import (
	"testing"

	"github.com/reeflab/coralmcda/internal/climate"
	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/scenario"
	"gonum.org/v1/gonum/mat"
)

func testDomain(t *testing.T) *domain.Domain {
	t.Helper()
	locs := []domain.Location{
		{SiteID: "a", Area: 100, DepthMed: 5, K: 0.5, Centroid: domain.LonLat{Lon: 0, Lat: 0}},
		{SiteID: "b", Area: 100, DepthMed: 6, K: 0.5, Centroid: domain.LonLat{Lon: 1, Lat: 0}},
		{SiteID: "c", Area: 100, DepthMed: 7, K: 0.5, Centroid: domain.LonLat{Lon: 2, Lat: 0}},
	}
	conn := mat.NewDense(3, 3, []float64{
		0, 0.1, 0.05,
		0.1, 0, 0.05,
		0.05, 0.05, 0,
	})
	species := make([]domain.SpeciesBin, 0, domain.NBins)
	taxa := []string{"tabular_acropora", "corymbose_acropora", "massive_porites", "digitate_acropora", "other_a", "other_b"}
	for _, taxon := range taxa {
		for sc := 1; sc <= 6; sc++ {
			species = append(species, domain.SpeciesBin{
				Taxon:            taxon,
				SizeClass:        sc,
				GrowthRate:       0.15,
				MortalityRate:    0.05,
				BleachResistance: 0.4,
				ColonyAreaM2:     0.01,
				FecundityPerM2:   5,
				WaveMort90:       0.1,
				GompertzP1:       0.5,
				GompertzP2:       0.3,
				LPDHWCoeff:       0.5,
				LPDPrm2:          0.3,
			})
		}
	}
	dom, err := domain.New(locs, conn, species, 5, 2, domain.Timing{})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	return dom
}

func testForcing(t *testing.T, dom *domain.Domain, r int) *climate.Forcing {
	t.Helper()
	n := dom.N()
	horizon := dom.Horizon
	dhw := make([]float64, horizon*n*r)
	wave := make([]float64, horizon*n*r)
	for i := range dhw {
		dhw[i] = 1.5
		wave[i] = 0.2
	}
	f, err := climate.New(horizon, n, r, dhw, wave)
	if err != nil {
		t.Fatalf("climate.New: %v", err)
	}
	return f
}

func testParams() scenario.Params {
	return scenario.Params{
		MCDAMethod:         scenario.MCDAOrderSum,
		SeedVolumePerTaxon: [2]float64{500, 500},
		SeedStartYear:      2,
		SeedYears:          3,
		SeedFreqYears:      1,
		DepthMin:           0,
		DepthOffset:        10,
		Weights: scenario.Weights{
			InConnectivity: 1,
			Heat:           1,
			SeedPriority:   1,
		},
	}
}

func TestRunMaintainsCapacityInvariant(t *testing.T) {
	dom := testDomain(t)
	forcing := testForcing(t, dom, 2)
	rn := New(dom, forcing, nil)

	initial := make([]float64, domain.NBins*dom.N())
	for s := 0; s < domain.NBins; s++ {
		for l := 0; l < dom.N(); l++ {
			initial[dom.CoverIndex(s, l)] = 0.4 / domain.NBins
		}
	}

	result := rn.Run(testParams(), initial)

	for year := 0; year < result.T; year++ {
		for l := 0; l < result.N; l++ {
			for rep := 0; rep < result.R; rep++ {
				sum := 0.0
				for s := 0; s < domain.NBins; s++ {
					v := result.RawCover[result.idxCover(year, s, l, rep)]
					if v < 0 {
						t.Fatalf("year %d loc %d rep %d bin %d: negative cover %f", year, l, rep, s, v)
					}
					sum += v
				}
				if sum > dom.Locations[l].K+1e-9 {
					t.Fatalf("year %d loc %d rep %d: cover sum %f exceeds k %f", year, l, rep, sum, dom.Locations[l].K)
				}
			}
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	dom := testDomain(t)
	forcing := testForcing(t, dom, 2)
	rn := New(dom, forcing, nil)

	initial := make([]float64, domain.NBins*dom.N())
	params := testParams()
	params.MCDAMethod = scenario.MCDAUnguided

	first := rn.Run(params, initial)
	second := rn.Run(params, initial)

	for i := range first.RawCover {
		if first.RawCover[i] != second.RawCover[i] {
			t.Fatalf("index %d: %f != %f, run is not deterministic", i, first.RawCover[i], second.RawCover[i])
		}
	}
}

func TestRunCounterfactualNeverSelects(t *testing.T) {
	dom := testDomain(t)
	forcing := testForcing(t, dom, 1)
	rn := New(dom, forcing, nil)

	initial := make([]float64, domain.NBins*dom.N())
	params := testParams()
	params.MCDAMethod = scenario.MCDACounterfactual

	result := rn.Run(params, initial)
	for _, v := range result.SeedLog {
		if v != 0 {
			t.Fatalf("expected no seeding under counterfactual scenario, got %f", v)
		}
	}
}
