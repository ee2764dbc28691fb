package selection

import (
	"log/slog"
	"math/rand"

	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/scenario"
)

// Selector runs spec.md §4.D's site-selection pipeline against a fixed
// Domain for one scenario. It holds no per-call mutable state; callers
// provide the year's cover and climate slices and the rotation history.
type Selector struct {
	Domain *domain.Domain
	Rules  []mcda.ToleranceRule

	// Rng drives unguided (MCDAMethod == scenario.MCDAUnguided) site
	// selection. It must be seeded deterministically from the scenario
	// parameters (spec.md §5, internal/rngseed.Derive) so repeat runs
	// reproduce exactly. Left nil when no scenario in the batch is
	// unguided.
	Rng *rand.Rand
}

// NewSelector builds a Selector bound to dom. rules is the shared
// risk-filter rule set applied ahead of both seed and shade ranking
// (spec.md §4.A step 1); it may be nil.
func NewSelector(dom *domain.Domain, rules []mcda.ToleranceRule) *Selector {
	return &Selector{Domain: dom, Rules: rules}
}

// Select runs one decision-year ranking for the given Intent and returns
// the chosen location indices (0-based into Domain.Locations), length
// always equal to Domain.NInterventionSites. dhw and wave are this year's
// per-location forcing slices; cover is the flattened (NBins, N) cube for
// this year. prevSelected holds location indices chosen by either intent
// in prior decision years this replicate, consulted by the rotation rule.
//
// A non-nil error is only ever mcda.ErrUnknownMCDAMethod, which spec.md §7
// marks fatal for the whole scenario; every other internal failure is
// absorbed here: an empty candidate pool yields a zero-filled selection
// (with a slog.Warn when the risk filter emptied it), and a degenerate
// distance sort yields the best-effort set plus a slog.Warn.
func (s *Selector) Select(params scenario.Params, intent Intent, year int, cover, dhw, wave []float64, prevSelected map[int]bool, log *RankLog) ([]int, error) {
	dom := s.Domain
	n := dom.N()

	if params.MCDAMethod == scenario.MCDACounterfactual {
		// Counterfactual scenarios never intervene: no candidate pool is
		// even built, per spec.md §3's alg_ind = -1 meaning "cf".
		return zeroFill(dom.NInterventionSites), nil
	}

	candidates := s.depthFilter(params)
	candidates = rotationFilter(candidates, prevSelected, dom.N())

	table := s.buildTable(candidates, cover, dhw, wave)
	if len(table.LocationIDs) == 0 {
		return zeroFill(dom.NInterventionSites), nil
	}

	var ranked []mcda.RankedSite
	if params.MCDAMethod == scenario.MCDAUnguided {
		ranked = s.randomOrder(table.LocationIDs)
	} else {
		weights := intent.Weights(params.Weights)
		matrix, err := mcda.BuildMatrix(table, s.Rules, weights)
		if err != nil {
			slog.Warn("selection: candidate pool collapsed after risk filter", "intent", intent.Name, "year", year)
			return zeroFill(dom.NInterventionSites), nil
		}

		ranked, err = mcda.Rank(params.MCDAMethod, matrix)
		if err != nil {
			// mcda.Rank only ever returns ErrUnknownMCDAMethod, which is
			// fatal for the scenario rather than something to degrade past.
			return nil, err
		}
	}

	topN := params.Spread.TopNPool
	minDist := 0.0
	if params.Spread.Enable {
		minDist = params.Spread.MinDistFrac * dom.MedianPairwiseDistance()
	}
	chosenIDs, degraded := mcda.ApplySpatialSpread(ranked, dom.Distances, dom.NInterventionSites, topN, minDist)
	if degraded {
		slog.Warn("selection: spatial-spread filter degraded, returning best-effort set", "intent", intent.Name, "year", year)
	}

	rankByLocIdx := make(map[int]int, len(ranked))
	for _, r := range ranked {
		rankByLocIdx[r.LocationID-1] = r.Rank
	}
	considered := make([]int, len(table.LocationIDs))
	for i, id := range table.LocationIDs {
		considered[i] = id - 1
	}
	if log != nil {
		log.Record(year, intent, considered, rankByLocIdx)
	}

	chosen := make([]int, 0, dom.NInterventionSites)
	for _, id := range chosenIDs {
		locIdx := id - 1
		if locIdx >= 0 && locIdx < n {
			chosen = append(chosen, locIdx)
		}
	}
	for len(chosen) < dom.NInterventionSites {
		chosen = append(chosen, -1) // -1 marks an unfilled slot, per spec.md §4.D step 8
	}
	return chosen, nil
}

// randomOrder implements the "unguided" (alg_ind = 0) selection path: a
// uniform random shuffle of the surviving candidates, standing in for the
// dMCDA ranking (§4.A+§4.B) so the shared spatial-spread filter (§4.C) and
// rank-log recording downstream can treat it identically to a guided
// result. Score carries no meaning beyond ordering.
func (s *Selector) randomOrder(locationIDs []int) []mcda.RankedSite {
	shuffled := append([]int(nil), locationIDs...)
	if s.Rng != nil {
		s.Rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	}
	ranked := make([]mcda.RankedSite, len(shuffled))
	for i, id := range shuffled {
		ranked[i] = mcda.RankedSite{LocationID: id, Score: float64(len(shuffled) - i), Rank: i + 1}
	}
	return ranked
}

// depthFilter returns the 0-based location indices within
// [DepthMin, DepthMin+DepthOffset], per spec.md §4.D step 1. If none
// satisfy the window, the filter is waived: all locations are retained
// and a warning is logged, rather than letting an empty depth window
// collapse into the same zero-fill outcome as "no candidates survived
// ranking."
func (s *Selector) depthFilter(params scenario.Params) []int {
	lo := params.DepthMin
	hi := params.DepthMin + params.DepthOffset
	var out []int
	for i, loc := range s.Domain.Locations {
		if loc.DepthMed >= lo && loc.DepthMed <= hi {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		slog.Warn("selection: depth filter empty, retaining all locations")
		out = make([]int, len(s.Domain.Locations))
		for i := range out {
			out[i] = i
		}
	}
	return out
}

// rotationFilter removes locations selected in any prior decision year of
// this replicate, encouraging intervention to spread across the domain. If
// this would empty the candidate pool, the rotation rule is waived for
// this year and the unfiltered candidate set is returned unchanged (spec.md
// §9 Open Question: rotation must never be allowed to starve a decision
// year of any candidate at all).
func rotationFilter(candidates []int, prevSelected map[int]bool, n int) []int {
	if len(prevSelected) == 0 {
		return candidates
	}
	out := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if !prevSelected[idx] {
			out = append(out, idx)
		}
	}
	if len(out) == 0 {
		slog.Warn("selection: rotation rule would empty candidate pool, waiving for this year")
		return candidates
	}
	return out
}

// buildTable constructs the criteria table for the surviving candidates.
// available_space is included with weight forced to 0 by every Intent
// (spec.md §4.D step 3's "computed but never wired" criterion); its column
// is still built so a future scenario row could wire a non-zero weight to
// it without a code change here.
func (s *Selector) buildTable(candidates []int, cover, dhw, wave []float64) mcda.Table {
	dom := s.Domain
	n := len(candidates)
	table := mcda.Table{
		LocationIDs: make([]int, n),
		Columns: map[string][]float64{
			"in_connectivity":  make([]float64, n),
			"out_connectivity": make([]float64, n),
			"heat_prob":        make([]float64, n),
			"wave_prob":        make([]float64, n),
			"low_cover":        make([]float64, n),
			"high_cover":       make([]float64, n),
			"seed_priority":    make([]float64, n),
			"shade_priority":   make([]float64, n),
			"available_space":  make([]float64, n),
		},
	}
	waveMort := dom.MeanWaveMort90()
	for i, locIdx := range candidates {
		table.LocationIDs[i] = locIdx + 1 // LocationIDs are 1-based throughout internal/mcda
		loc := dom.Locations[locIdx]

		totalCover := 0.0
		for bin := 0; bin < domain.NBins; bin++ {
			totalCover += cover[dom.CoverIndex(bin, locIdx)]
		}
		coverFrac := 0.0
		if loc.K > 0 {
			coverFrac = totalCover / loc.K
		}

		table.Columns["in_connectivity"][i] = dom.InConnectivity(locIdx)
		table.Columns["out_connectivity"][i] = dom.OutConnectivity(locIdx)
		table.Columns["heat_prob"][i] = dhw[locIdx]
		table.Columns["wave_prob"][i] = waveMort * wave[locIdx]
		table.Columns["low_cover"][i] = 1 - coverFrac
		table.Columns["high_cover"][i] = coverFrac
		table.Columns["seed_priority"][i] = dom.ConnectivityRank[dom.StrongestPredecessor[locIdx]]
		table.Columns["shade_priority"][i] = dom.ConnectivityRank[locIdx]
		table.Columns["available_space"][i] = loc.K - totalCover
	}
	return table
}

// zeroFill returns n unfilled slots, the counterpart of spec.md §4.D step
// 8: when an intent has no surviving candidates at all, the decision year
// simply selects nothing rather than erroring.
func zeroFill(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	return out
}
