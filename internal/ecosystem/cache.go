// Package ecosystem implements the per-step coral population dynamics
// (spec.md §4.F): larval production, recruitment, DHW adjustment from
// interventions, bleaching mortality, combined proportional loss, seeding
// application, the growth ODE call, and the proportional-cover adjuster
// (§4.J), run as a per-tick, per-location loop over a reusable Cache of
// scratch buffers (spec.md §9: "the scenario runner needs per-scenario
// mutable arrays ... bundle these as a Cache value").
package ecosystem

import "github.com/reeflab/coralmcda/internal/domain"

// Cache holds the mutable scratch buffers a single scenario replicate reuses
// across every time step, avoiding per-step allocation. internal/runner
// constructs one Cache per replicate, and a Cache must never be shared
// across concurrently running replicates (spec.md §5, §9).
type Cache struct {
	n      int
	nBins  int
	groups int

	// LP is the larval-production attenuation multiplier, one per (group,
	// location), flattened group-major.
	LP []float64

	// FecScope is the fecundity scope per (group, location), flattened
	// group-major (spec.md §4.F.2).
	FecScope []float64

	// Recruits is the settled-recruit cover added per (group, location),
	// flattened group-major (spec.md §4.F.3).
	Recruits []float64

	// BleachSurv and WaveSurv are per-(bin, location) survival fractions,
	// flattened bin-major (spec.md §4.F.5-6).
	BleachSurv []float64
	WaveSurv   []float64

	// CovTmp is the working cover cube after bleaching, wave loss, and
	// seeding have been applied but before the growth ODE call, flattened
	// bin-major via domain.Domain.CoverIndex (spec.md §4.F.6-8).
	CovTmp []float64

	// DHWStep and WaveStep are this year's per-location forcing vectors,
	// copied out of climate.Forcing and mutated in place by DHW adjustment
	// (spec.md §4.F.4) without touching the read-only source arrays.
	DHWStep  []float64
	WaveStep []float64

	// ColSum is the per-location total cover, reused by the proportional
	// cover adjuster (spec.md §4.J).
	ColSum []float64
}

// NewCache allocates a Cache sized for dom.N() locations, domain.NBins
// species bins, and len(dom.TaxonOrder) species groups.
func NewCache(dom *domain.Domain) *Cache {
	n := dom.N()
	groups := len(dom.TaxonOrder)
	return &Cache{
		n:          n,
		nBins:      domain.NBins,
		groups:     groups,
		LP:         make([]float64, groups*n),
		FecScope:   make([]float64, groups*n),
		Recruits:   make([]float64, groups*n),
		BleachSurv: make([]float64, domain.NBins*n),
		WaveSurv:   make([]float64, domain.NBins*n),
		CovTmp:     make([]float64, domain.NBins*n),
		DHWStep:    make([]float64, n),
		WaveStep:   make([]float64, n),
		ColSum:     make([]float64, n),
	}
}

// reset zeros every buffer except DHWStep and WaveStep, which Step
// overwrites in full right after, so a Cache can be reused for the next
// time step without stale values leaking through partially-written slices.
func (c *Cache) reset() {
	zero(c.LP)
	zero(c.FecScope)
	zero(c.Recruits)
	zero(c.BleachSurv)
	zero(c.WaveSurv)
	zero(c.CovTmp)
	zero(c.ColSum)
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
