package mcda

// orderSumRanker implements the OrderSum algorithm (spec.md §4.B):
// score_l = sum_c S[l, c]. Linear and monotone in the weighted, normalized
// matrix — the simplest of the three rankers.
type orderSumRanker struct{}

func init() {
	Register(1, orderSumRanker{})
}

func (orderSumRanker) Rank(m *Matrix) ([]RankedSite, error) {
	rows, cols := m.Data.Dims()
	sites := make([]RankedSite, rows)
	for r := 0; r < rows; r++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			sum += m.Data.At(r, c)
		}
		sites[r] = RankedSite{LocationID: m.LocationIDs[r], Score: sum}
	}
	assignRanksByScoreDesc(sites)
	return sites, nil
}
