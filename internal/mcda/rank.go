package mcda

import "sort"

// RankedSite is one row of a ranker's output: a surviving location, its
// score, and its 1-based rank (1 = best).
type RankedSite struct {
	LocationID int
	Score      float64
	Rank       int
}

// Ranker consumes a weighted, normalized decision matrix and produces an
// ordered list of RankedSite, highest score first. Implementations must
// break ties by ascending location id (spec.md §4.B).
type Ranker interface {
	Rank(m *Matrix) ([]RankedSite, error)
}

// registry is the table-driven dispatch described in spec.md §9's "dynamic
// dispatch over MCDA methods" note, keyed by the scenario's MCDAMethod id —
// a map from an integer id to behavior, so new rankers register themselves
// without this file changing.
var registry = map[int]Ranker{}

// Register installs a Ranker under a method id. Called from each ranker's
// init() so additional algorithms can be registered without touching this
// file, per spec.md §1's "additional algorithms may be registered" note.
func Register(methodID int, r Ranker) {
	registry[methodID] = r
}

// Rank dispatches to the registered Ranker for methodID. Returns
// ErrUnknownMCDAMethod if methodID has no registered implementation — this
// is fatal for the scenario (spec.md §7): callers must not default to
// another algorithm.
func Rank(methodID int, m *Matrix) ([]RankedSite, error) {
	r, ok := registry[methodID]
	if !ok {
		return nil, ErrUnknownMCDAMethod
	}
	return r.Rank(m)
}

// assignRanksByScoreDesc sorts sites by descending score, breaking ties by
// ascending location id, and writes 1-based Rank into each entry in place.
func assignRanksByScoreDesc(sites []RankedSite) {
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].LocationID < sites[j].LocationID
	})
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Score > sites[j].Score
	})
	for i := range sites {
		sites[i].Rank = i + 1
	}
}
