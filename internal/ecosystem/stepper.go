package ecosystem

import (
	"math"

	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/scenario"
)

// StepInput bundles everything the stepper needs to advance Y[t-1,:,:] to
// Y[t,:,:] (spec.md §4.F).
type StepInput struct {
	Year int // t, 1-based

	// Prev is Y[t-1,:,:], flattened via domain.Domain.CoverIndex. Never
	// mutated.
	Prev []float64

	// DHW and Wave are this year's (spec-year t) per-location forcing,
	// copied out of climate.Forcing by the caller. DHW is mutated in place
	// by the intervention DHW-adjustment step (spec.md §4.F.4); Wave is
	// read-only.
	DHW  []float64
	Wave []float64

	// DHWPrev is spec-year t-1's raw DHW, used only by larval production
	// (spec.md §4.F.1: "DHW at t−1"), which runs before this step's own
	// DHW gets adjusted by shading/fogging.
	DHWPrev []float64

	IsSeedYear  bool
	IsShadeYear bool
	IsFogYear   bool

	// PrefSeedSites and PrefShadeSites are 0-based location indices chosen
	// by the site selector this decision year; a -1 entry marks an
	// unfilled slot (internal/selection's zero-fill convention) and is
	// skipped everywhere below.
	PrefSeedSites  []int
	PrefShadeSites []int

	Params scenario.Params
}

// StepOutput carries Y[t,:,:] plus the sparse intervention logs for this
// step (spec.md §6: Yseed, Yfog, Yshade).
type StepOutput struct {
	Cover []float64 // Y[t,:,:], flattened via domain.Domain.CoverIndex

	// SeedApplied is flattened (taxon, location), taxon-major, taxon in
	// [0,1] matching domain.Domain.EnhancedSeedBins order.
	SeedApplied []float64

	// FogApplied and ShadeApplied are per-location magnitudes: the DHW
	// reduction fogging/shading contributed at each location this step.
	// Both are mostly zero (spec.md §9: "store as sparse logs").
	FogApplied   []float64
	ShadeApplied []float64
}

// Stepper runs spec.md §4.F for one scenario replicate. It holds no
// mutable state of its own beyond the injected Cache, which the caller
// owns and reuses across steps.
type Stepper struct {
	Domain     *domain.Domain
	Integrator Integrator
	Cache      *Cache
}

// NewStepper builds a Stepper for dom using EulerIntegrator as the default
// growth-ODE reference implementation, per spec.md §1's black-box
// integrator exclusion.
func NewStepper(dom *domain.Domain, cache *Cache) *Stepper {
	return &Stepper{Domain: dom, Integrator: EulerIntegrator{}, Cache: cache}
}

// Step advances the cover state by one year.
func (st *Stepper) Step(in StepInput) StepOutput {
	dom := st.Domain
	n := dom.N()
	c := st.Cache
	c.reset()

	copy(c.DHWStep, in.DHW)
	copy(c.WaveStep, in.Wave)

	st.larvalProduction(in.Prev, in.DHWPrev, c)
	st.fecundityScope(in.Prev, c)
	st.recruitment(c)

	seedApplied := make([]float64, 2*n)
	fogApplied := make([]float64, n)
	shadeApplied := make([]float64, n)

	st.applyDHWAdjustment(in, c, fogApplied, shadeApplied)
	st.bleachingMortality(c)
	st.waveSurvival(c)

	// Step 6: combined proportional loss.
	for s := 0; s < domain.NBins; s++ {
		for l := 0; l < n; l++ {
			idx := dom.CoverIndex(s, l)
			c.CovTmp[idx] = in.Prev[idx] * c.BleachSurv[idx] * c.WaveSurv[idx]
		}
	}

	st.settleRecruits(c)

	if in.IsSeedYear && hasSelection(in.PrefSeedSites) {
		st.applySeeding(in, c, seedApplied)
	}

	next := st.Integrator.Integrate(c.CovTmp, st.growthDeriv(), 1.0)
	AdjustCover(next, dom)

	return StepOutput{
		Cover:        next,
		SeedApplied:  seedApplied,
		FogApplied:   fogApplied,
		ShadeApplied: shadeApplied,
	}
}

// larvalProduction implements spec.md §4.F.1: a Gompertz-shaped,
// stress-attenuated fecundity multiplier per (group, location), driven by
// the previous spec-year's DHW (dhwPrev), not this step's (possibly
// intervention-adjusted) current-year DHW.
func (st *Stepper) larvalProduction(prev, dhwPrev []float64, c *Cache) {
	dom := st.Domain
	n := dom.N()
	for gi, taxon := range dom.TaxonOrder {
		bins := dom.TaxonBins[taxon]
		coeff, prm2, adapt := groupLPParams(dom, bins)
		for l := 0; l < n; l++ {
			adjusted := math.Max(0, dhwPrev[l]-adapt)
			x := 0.0
			if dom.DHWMaxTotal > 0 {
				x = adjusted / dom.DHWMaxTotal
			}
			c.LP[gi*n+l] = gompertzDecay(x, coeff, prm2)
		}
	}
	_ = prev
}

func groupLPParams(dom *domain.Domain, bins []int) (coeff, prm2, adapt float64) {
	if len(bins) == 0 {
		return 0, 0, 0
	}
	for _, b := range bins {
		sp := dom.Species[b]
		coeff += sp.LPDHWCoeff
		prm2 += sp.LPDPrm2
		adapt += sp.NaturalAdaptation + sp.AssistedAdaptation
	}
	m := float64(len(bins))
	return coeff / m, prm2 / m, adapt / m
}

// gompertzDecay evaluates a Gompertz-shaped decay curve, clamped to [0,1].
// x is expected non-negative; larger x (more stress) yields smaller output.
func gompertzDecay(x, coeff, prm2 float64) float64 {
	v := math.Exp(-coeff * math.Exp(prm2*x))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// fecundityScope implements spec.md §4.F.2: fec_scope[g,l] = sum over
// size-classes in group g of fecundity_per_m2 * cover * location area.
func (st *Stepper) fecundityScope(prev []float64, c *Cache) {
	dom := st.Domain
	n := dom.N()
	for gi, taxon := range dom.TaxonOrder {
		bins := dom.TaxonBins[taxon]
		for l := 0; l < n; l++ {
			sum := 0.0
			area := dom.Locations[l].Area
			for _, s := range bins {
				sum += dom.Species[s].FecundityPerM2 * prev[dom.CoverIndex(s, l)] * area
			}
			c.FecScope[gi*n+l] = sum
		}
	}
}

// recruitment implements spec.md §4.F.3: larvae produced at each source
// location are distributed to destinations via the connectivity transition
// matrix, then scaled by potential_settler_cover and the destination's
// area.
func (st *Stepper) recruitment(c *Cache) {
	dom := st.Domain
	n := dom.N()
	produced := make([]float64, n)
	for gi := range dom.TaxonOrder {
		for l := 0; l < n; l++ {
			produced[l] = c.FecScope[gi*n+l] * c.LP[gi*n+l]
		}
		for dest := 0; dest < n; dest++ {
			exported := 0.0
			for src := 0; src < n; src++ {
				exported += produced[src] * dom.Connectivity.At(src, dest)
			}
			area := dom.Locations[dest].Area
			if area <= 0 {
				continue
			}
			c.Recruits[gi*n+dest] = dom.PotentialSettlerCover * exported / area
		}
	}
}

// settleRecruits adds each group's recruits into the smallest size-class
// bin of that group, after the combined proportional-loss step and before
// intervention application — new coral settles into the population before
// out-planting tops it up further this year.
func (st *Stepper) settleRecruits(c *Cache) {
	dom := st.Domain
	n := dom.N()
	for gi, taxon := range dom.TaxonOrder {
		settleBin := smallestSizeClassBin(dom, taxon)
		if settleBin < 0 {
			continue
		}
		for l := 0; l < n; l++ {
			c.CovTmp[dom.CoverIndex(settleBin, l)] += c.Recruits[gi*n+l]
		}
	}
}

func smallestSizeClassBin(dom *domain.Domain, taxon string) int {
	best := -1
	bestSize := math.MaxInt64
	for _, b := range dom.TaxonBins[taxon] {
		if dom.Species[b].SizeClass < bestSize {
			bestSize = dom.Species[b].SizeClass
			best = b
		}
	}
	return best
}

// applyDHWAdjustment implements spec.md §4.F.4: shading uniformly lowers
// DHW at every location in a shading year; fogging multiplicatively
// reduces DHW only at the intervention sites selected this year (seed
// sites take priority, falling back to shade sites), in a fogging year.
func (st *Stepper) applyDHWAdjustment(in StepInput, c *Cache, fogApplied, shadeApplied []float64) {
	if in.IsShadeYear && in.Params.SRM > 0 {
		for l := range c.DHWStep {
			reduced := c.DHWStep[l] - in.Params.SRM
			if reduced < 0 {
				reduced = 0
			}
			shadeApplied[l] = c.DHWStep[l] - reduced
			c.DHWStep[l] = reduced
		}
	}

	if in.IsFogYear && in.Params.FoggingFraction > 0 {
		sites := in.PrefSeedSites
		if !hasSelection(sites) {
			sites = in.PrefShadeSites
		}
		if hasSelection(sites) {
			for _, l := range sites {
				if l < 0 {
					continue
				}
				before := c.DHWStep[l]
				c.DHWStep[l] *= 1 - in.Params.FoggingFraction
				fogApplied[l] = before - c.DHWStep[l]
			}
		}
	}
}

// bleachingMortality implements spec.md §4.F.5: a Gompertz survival curve
// per (species, location), using the adjusted DHW with adaptation and
// bleach resistance subtracted.
func (st *Stepper) bleachingMortality(c *Cache) {
	dom := st.Domain
	n := dom.N()
	for s := 0; s < domain.NBins; s++ {
		sp := dom.Species[s]
		adapt := sp.NaturalAdaptation + sp.AssistedAdaptation
		for l := 0; l < n; l++ {
			effective := c.DHWStep[l] - adapt - sp.BleachResistance
			if effective < 0 {
				effective = 0
			}
			c.BleachSurv[dom.CoverIndex(s, l)] = gompertzDecay(effective, sp.GompertzP1, sp.GompertzP2)
		}
	}
}

// waveSurvival implements the wave_surv term of spec.md §4.F.6:
// 1 - clamp(wave_mort_90[s] * wave_t, 0, 1).
func (st *Stepper) waveSurvival(c *Cache) {
	dom := st.Domain
	n := dom.N()
	for s := 0; s < domain.NBins; s++ {
		mort := dom.Species[s].WaveMort90
		for l := 0; l < n; l++ {
			m := mort * c.WaveStep[l]
			if m < 0 {
				m = 0
			}
			if m > 1 {
				m = 1
			}
			c.WaveSurv[dom.CoverIndex(s, l)] = 1 - m
		}
	}
}

// applySeeding implements spec.md §4.F.7: out-plant the two enhanced taxa
// (tabular and corymbose Acropora, size-class 2) at the selected seed
// sites, adding a per-taxon share of the scenario's seeding volume.
func (st *Stepper) applySeeding(in StepInput, c *Cache, seedApplied []float64) {
	dom := st.Domain
	n := dom.N()
	nInt := dom.NInterventionSites
	if nInt <= 0 {
		return
	}
	bins := dom.EnhancedSeedBins()
	for taxonIdx, bin := range bins {
		if taxonIdx >= 2 {
			break
		}
		vol := in.Params.SeedVolumePerTaxon[taxonIdx]
		if vol <= 0 {
			continue
		}
		sp := dom.Species[bin]
		perSite := vol / float64(nInt)
		for _, l := range in.PrefSeedSites {
			if l < 0 || l >= n {
				continue
			}
			loc := dom.Locations[l]
			if loc.Area <= 0 || loc.K <= 0 {
				continue
			}
			added := perSite * sp.ColonyAreaM2 / (loc.Area * loc.K)
			c.CovTmp[dom.CoverIndex(bin, l)] += added
			seedApplied[taxonIdx*n+l] += added
		}
	}
}

// growthDeriv returns the per-step logistic growth-and-mortality
// derivative the ODE integrator advances: dY_s/dt = growth_s * Y_s *
// (1 - total_cover_l/k_l) - mortality_s * Y_s. spec.md §1 treats the
// growth kernel itself as an external black box specified only by its
// state-derivative contract, so this is the stdlib reference
// implementation Stepper hands to the default EulerIntegrator.
func (st *Stepper) growthDeriv() DerivFunc {
	dom := st.Domain
	n := dom.N()
	return func(state []float64) []float64 {
		colSum := make([]float64, n)
		for s := 0; s < domain.NBins; s++ {
			for l := 0; l < n; l++ {
				colSum[l] += state[dom.CoverIndex(s, l)]
			}
		}
		out := make([]float64, len(state))
		for s := 0; s < domain.NBins; s++ {
			sp := dom.Species[s]
			for l := 0; l < n; l++ {
				idx := dom.CoverIndex(s, l)
				y := state[idx]
				k := dom.Locations[l].K
				space := 1.0
				if k > 0 {
					space = 1 - colSum[l]/k
				}
				out[idx] = sp.GrowthRate*y*space - sp.MortalityRate*y
			}
		}
		return out
	}
}

func hasSelection(sites []int) bool {
	for _, s := range sites {
		if s >= 0 {
			return true
		}
	}
	return false
}
