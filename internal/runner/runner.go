// Package runner implements the per-scenario time-stepped integration
// (spec.md §4.G): it wires internal/climate's forcing arrays,
// internal/selection's site selector, and internal/ecosystem's stepper
// together across the environmental replicates of a single scenario
// parameter row, and assembles the output arrays spec.md §6 specifies.
// A Runner is constructed once per Domain and forcing dataset, then
// driven across every scenario parameter row that shares them.
package runner

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/reeflab/coralmcda/internal/climate"
	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/ecosystem"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/rngseed"
	"github.com/reeflab/coralmcda/internal/scenario"
	"github.com/reeflab/coralmcda/internal/selection"
)

// DefaultEpsilon is the magnitude below which output cover values are
// quantized to zero to aid sparse storage (spec.md §4.G, §6).
const DefaultEpsilon = 1e-6

// Result holds one scenario's complete output, per spec.md §6.
type Result struct {
	T, N, R int

	// RawCover is T × 36 × N × R, flattened via idxCover.
	RawCover []float64

	// SeedLog is T × 2 × N × R, flattened via idxSeed.
	SeedLog []float64

	// FogLog and ShadeLog are T × N × R, flattened via idxSite.
	FogLog   []float64
	ShadeLog []float64

	// SiteRanks is T × N × 2 (seed, shade), mean over replicates.
	SiteRanks []float64

	// Failed marks a scenario that hit a fatal error partway through
	// (spec.md §7): the arrays above are partially populated up to the
	// point of failure.
	Failed bool
}

func (r *Result) idxCover(t, s, l, rep int) int {
	return ((t*domain.NBins+s)*r.N+l)*r.R + rep
}

func (r *Result) idxSeed(t, taxon, l, rep int) int {
	return ((t*2+taxon)*r.N+l)*r.R + rep
}

func (r *Result) idxSite(t, l, rep int) int {
	return (t*r.N+l)*r.R + rep
}

func (r *Result) idxRank(t, l, col int) int {
	return (t*r.N+l)*2 + col
}

// NewResult allocates a zero-valued Result sized for t years, n locations,
// and r replicates.
func NewResult(t, n, r int) *Result {
	return &Result{
		T: t, N: n, R: r,
		RawCover:  make([]float64, t*domain.NBins*n*r),
		SeedLog:   make([]float64, t*2*n*r),
		FogLog:    make([]float64, t*n*r),
		ShadeLog:  make([]float64, t*n*r),
		SiteRanks: make([]float64, t*n*2),
	}
}

// Runner runs spec.md §4.G against a fixed Domain and forcing dataset.
type Runner struct {
	Domain  *domain.Domain
	Forcing *climate.Forcing
	Rules   []mcda.ToleranceRule
	Epsilon float64
}

// New builds a Runner. rules is the shared risk-filter rule set handed to
// every site-selection call; it may be nil.
func New(dom *domain.Domain, forcing *climate.Forcing, rules []mcda.ToleranceRule) *Runner {
	return &Runner{Domain: dom, Forcing: forcing, Rules: rules, Epsilon: DefaultEpsilon}
}

// Run executes the scenario across every environmental replicate in the
// Runner's Forcing dataset and returns the assembled Result. initialCover
// is Y[0,:,:] (spec-year 1), flattened via domain.Domain.CoverIndex, and
// is never mutated.
func (rn *Runner) Run(params scenario.Params, initialCover []float64) *Result {
	dom := rn.Domain
	n := dom.N()
	t := rn.Forcing.T
	if t > dom.Horizon {
		t = dom.Horizon
	}
	result := NewResult(t, n, rn.Forcing.R)

	seedDecision := params.SeedDecisionYears(dom.Horizon)
	shadeDecision := params.ShadeDecisionYears(dom.Horizon)

	seedRankSum := make([]float64, t*n)
	shadeRankSum := make([]float64, t*n)

	for r := 0; r < rn.Forcing.R; r++ {
		if !rn.runReplicate(params, initialCover, r, t, seedDecision, shadeDecision, result, seedRankSum, shadeRankSum) {
			result.Failed = true
			break
		}
	}

	reps := float64(rn.Forcing.R)
	for year := 0; year < t; year++ {
		for l := 0; l < n; l++ {
			result.SiteRanks[result.idxRank(year, l, 0)] = seedRankSum[year*n+l] / reps
			result.SiteRanks[result.idxRank(year, l, 1)] = shadeRankSum[year*n+l] / reps
		}
	}

	quantize(result.RawCover, rn.epsilon())
	quantize(result.FogLog, rn.epsilon())
	quantize(result.ShadeLog, rn.epsilon())

	return result
}

func (rn *Runner) epsilon() float64 {
	if rn.Epsilon > 0 {
		return rn.Epsilon
	}
	return DefaultEpsilon
}

// runReplicate returns false if it hit a fatal scenario-level error (an
// unrecognized MCDA method id, per spec.md §7) partway through, in which
// case the replicate's arrays are left partially populated and the caller
// marks the whole Result failed rather than attempting further replicates.
func (rn *Runner) runReplicate(params scenario.Params, initialCover []float64, r, t int, seedDecision, shadeDecision []bool, result *Result, seedRankSum, shadeRankSum []float64) bool {
	dom := rn.Domain
	n := dom.N()

	cache := ecosystem.NewCache(dom)
	stepper := ecosystem.NewStepper(dom, cache)
	selector := selection.NewSelector(dom, rn.Rules)
	if params.MCDAMethod == scenario.MCDAUnguided {
		selector.Rng = rand.New(rand.NewSource(rngseed.Derive(params) + int64(r)))
	}
	rankLog := selection.NewRankLog(t, n)

	cover := append([]float64(nil), initialCover...)
	storeCover(result, cover, 0, r)

	prevSelected := map[int]bool{}
	prefSeed := zeroSites(dom.NInterventionSites)
	prefShade := zeroSites(dom.NInterventionSites)

	dhwPrev := make([]float64, n)
	dhwCur := make([]float64, n)
	waveCur := make([]float64, n)

	for i := 1; i < t; i++ {
		specYear := i + 1
		rn.Forcing.DHWStep(i-1, r, dhwPrev)
		rn.Forcing.DHWStep(i, r, dhwCur)
		rn.Forcing.WaveStep(i, r, waveCur)

		isSeedDecision := specYear <= dom.Horizon && seedDecision[specYear] && params.SeedActive()
		isShadeDecision := specYear <= dom.Horizon && shadeDecision[specYear] && params.ShadeActive()

		// Site selection consults this spec-year's forcing (spec.md
		// §4.D.3: heat_prob = DHW_t, wave_prob derived from wave_t).
		if isSeedDecision {
			sites, err := selector.Select(params, selection.SeedIntent, i, cover, dhwCur, waveCur, prevSelected, rankLog)
			if err != nil {
				slog.Error("runner: scenario-fatal selection error", "intent", "seed", "year", i, "err", err)
				return false
			}
			prefSeed = sites
			for _, l := range prefSeed {
				if l >= 0 {
					prevSelected[l] = true
				}
			}
		}
		if isShadeDecision {
			sites, err := selector.Select(params, selection.ShadeIntent, i, cover, dhwCur, waveCur, prevSelected, rankLog)
			if err != nil {
				slog.Error("runner: scenario-fatal selection error", "intent", "shade", "year", i, "err", err)
				return false
			}
			prefShade = sites
			for _, l := range prefShade {
				if l >= 0 {
					prevSelected[l] = true
				}
			}
		}

		out := stepper.Step(ecosystem.StepInput{
			Year:           specYear,
			Prev:           cover,
			DHW:            dhwCur,
			DHWPrev:        dhwPrev,
			Wave:           waveCur,
			IsSeedYear:     isSeedDecision,
			IsShadeYear:    params.SRM > 0 && isShadeDecision,
			IsFogYear:      params.FoggingFraction > 0 && isShadeDecision,
			PrefSeedSites:  prefSeed,
			PrefShadeSites: prefShade,
			Params:         params,
		})

		cover = out.Cover
		storeCover(result, cover, i, r)
		storeSeed(result, out.SeedApplied, i, r)
		storeSite(result.FogLog, result, out.FogApplied, i, r)
		storeSite(result.ShadeLog, result, out.ShadeApplied, i, r)
	}

	for year := 0; year < t; year++ {
		for l := 0; l < n; l++ {
			seedRankSum[year*n+l] += float64(rankLog.SeedRankAt(year, l))
			shadeRankSum[year*n+l] += float64(rankLog.ShadeRankAt(year, l))
		}
	}
	return true
}

func storeCover(result *Result, cover []float64, year, rep int) {
	nBins := domain.NBins
	n := result.N
	for s := 0; s < nBins; s++ {
		for l := 0; l < n; l++ {
			result.RawCover[result.idxCover(year, s, l, rep)] = cover[s*n+l]
		}
	}
}

func storeSeed(result *Result, seedApplied []float64, year, rep int) {
	n := result.N
	for taxon := 0; taxon < 2; taxon++ {
		for l := 0; l < n; l++ {
			result.SeedLog[result.idxSeed(year, taxon, l, rep)] = seedApplied[taxon*n+l]
		}
	}
}

func storeSite(dst []float64, result *Result, values []float64, year, rep int) {
	for l := 0; l < result.N; l++ {
		dst[result.idxSite(year, l, rep)] = values[l]
	}
}

func zeroSites(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	return out
}

func quantize(vals []float64, epsilon float64) {
	for i, v := range vals {
		if math.Abs(v) < epsilon {
			vals[i] = 0
		}
	}
}
