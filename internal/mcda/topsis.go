package mcda

import "math"

// topsisRanker implements TOPSIS (spec.md §4.B): for each criterion c,
// PIS_c = max_l S[l,c], NIS_c = min_l S[l,c]; each location's score is its
// normalized distance from the negative ideal solution.
type topsisRanker struct{}

func init() {
	Register(2, topsisRanker{})
}

func (topsisRanker) Rank(m *Matrix) ([]RankedSite, error) {
	rows, cols := m.Data.Dims()
	pis := make([]float64, cols)
	nis := make([]float64, cols)
	for c := 0; c < cols; c++ {
		pis[c], nis[c] = m.Data.At(0, c), m.Data.At(0, c)
		for r := 1; r < rows; r++ {
			v := m.Data.At(r, c)
			if v > pis[c] {
				pis[c] = v
			}
			if v < nis[c] {
				nis[c] = v
			}
		}
	}

	sites := make([]RankedSite, rows)
	for r := 0; r < rows; r++ {
		sp, sn := 0.0, 0.0
		for c := 0; c < cols; c++ {
			v := m.Data.At(r, c)
			dp := v - pis[c]
			dn := v - nis[c]
			sp += dp * dp
			sn += dn * dn
		}
		sp = math.Sqrt(sp)
		sn = math.Sqrt(sn)
		score := 0.0
		if denom := sp + sn; denom != 0 {
			score = sn / denom
		}
		sites[r] = RankedSite{LocationID: m.LocationIDs[r], Score: score}
	}
	assignRanksByScoreDesc(sites)
	return sites, nil
}
