package selection

// RankLog is the persistent ranking log (spec.md §3): for each decision
// year, the (location_id, seed_rank, shade_rank) triple. Rank 0 means "not
// considered." Shaped T × N, flattened row-major by year.
type RankLog struct {
	T, N      int
	SeedRank  []int
	ShadeRank []int
}

// NewRankLog allocates a zero-valued log for a T-year, N-location run. All
// entries start at 0 ("not considered"), matching spec.md §9's Open
// Question #2 resolution: rank 1 must never be written for a site that was
// not in the considered set.
func NewRankLog(t, n int) *RankLog {
	return &RankLog{
		T:         t,
		N:         n,
		SeedRank:  make([]int, t*n),
		ShadeRank: make([]int, t*n),
	}
}

func (l *RankLog) index(year, locIdx int) int {
	return year*l.N + locIdx
}

// Record writes the ranks for `considered` locations (0-based index into
// Domain.Locations) at the given year; every other location's entry for
// this year is left at its zero-value baseline. rankByLocIdx maps a
// location's 0-based index to its 1-based rank (rank 1 = best).
func (l *RankLog) Record(year int, intent Intent, considered []int, rankByLocIdx map[int]int) {
	dst := l.SeedRank
	if intent.LogColumn == ShadeIntent.LogColumn {
		dst = l.ShadeRank
	}
	for _, locIdx := range considered {
		rank, ok := rankByLocIdx[locIdx]
		if !ok {
			continue
		}
		dst[l.index(year, locIdx)] = rank
	}
}

// SeedRankAt returns the logged seed rank for (year, locIdx), 0-based.
func (l *RankLog) SeedRankAt(year, locIdx int) int { return l.SeedRank[l.index(year, locIdx)] }

// ShadeRankAt returns the logged shade rank for (year, locIdx), 0-based.
func (l *RankLog) ShadeRankAt(year, locIdx int) int { return l.ShadeRank[l.index(year, locIdx)] }

// MeanSeedRank returns, per location, the mean seed rank across years
// where it was considered (rank > 0), for end-of-run persistence
// (spec.md §3: "the per-site means across replicates are persisted").
func (l *RankLog) MeanSeedRank() []float64 {
	return meanNonZero(l.SeedRank, l.T, l.N)
}

// MeanShadeRank is the shade-column analog of MeanSeedRank.
func (l *RankLog) MeanShadeRank() []float64 {
	return meanNonZero(l.ShadeRank, l.T, l.N)
}

func meanNonZero(data []int, t, n int) []float64 {
	sums := make([]float64, n)
	counts := make([]int, n)
	for year := 0; year < t; year++ {
		for loc := 0; loc < n; loc++ {
			v := data[year*n+loc]
			if v > 0 {
				sums[loc] += float64(v)
				counts[loc]++
			}
		}
	}
	out := make([]float64, n)
	for loc := 0; loc < n; loc++ {
		if counts[loc] > 0 {
			out[loc] = sums[loc] / float64(counts[loc])
		}
	}
	return out
}
