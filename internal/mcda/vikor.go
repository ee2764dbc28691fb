package mcda

// vikorRanker implements VIKOR (spec.md §4.B): let F = max over all matrix
// elements, A[l,c] = F - S[l,c]; Sr_l = sum_c A[l,c] (group utility),
// R_l = max_c A[l,c] (individual regret); Q_l is the v-weighted compromise
// of the normalized Sr and R, and the final score is 1 - Q_l (larger is
// better).
type vikorRanker struct{}

func init() {
	Register(3, vikorRanker{})
}

const vikorV = 0.5

func (vikorRanker) Rank(m *Matrix) ([]RankedSite, error) {
	rows, cols := m.Data.Dims()

	f := m.Data.At(0, 0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := m.Data.At(r, c); v > f {
				f = v
			}
		}
	}

	sr := make([]float64, rows)
	reg := make([]float64, rows)
	for r := 0; r < rows; r++ {
		maxA := 0.0
		sum := 0.0
		for c := 0; c < cols; c++ {
			a := f - m.Data.At(r, c)
			sum += a
			if a > maxA {
				maxA = a
			}
		}
		sr[r] = sum
		reg[r] = maxA
	}

	srMin, srMax := minMax(sr)
	rMin, rMax := minMax(reg)

	sites := make([]RankedSite, rows)
	for r := 0; r < rows; r++ {
		srTerm := 0.0
		if srMax != srMin {
			srTerm = (sr[r] - srMin) / (srMax - srMin)
		}
		rTerm := 0.0
		if rMax != rMin {
			rTerm = (reg[r] - rMin) / (rMax - rMin)
		}
		q := vikorV*srTerm + (1-vikorV)*rTerm
		sites[r] = RankedSite{LocationID: m.LocationIDs[r], Score: 1 - q}
	}
	assignRanksByScoreDesc(sites)
	return sites, nil
}

func minMax(vals []float64) (min, max float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
