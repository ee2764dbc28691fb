package sensitivity

// DefaultSlices is the default quantile-slice count S, per spec.md §4.I.
const DefaultSlices = 10

// PAWNResult holds the per-factor summary produced by PAWNIndex, indexed
// in the same column order as the input matrix X.
type PAWNResult struct {
	Factors []Summary
}

// PAWNIndex computes the PAWN sensitivity index (spec.md §4.I) for input
// matrix x (N rows × D factor columns, row-major) against output vector y
// (length N), using slices quantile slices per factor (DefaultSlices if
// slices <= 0).
func PAWNIndex(x [][]float64, y []float64, slices int) PAWNResult {
	if slices <= 0 {
		slices = DefaultSlices
	}
	d := 0
	if len(x) > 0 {
		d = len(x[0])
	}
	result := PAWNResult{Factors: make([]Summary, d)}
	for col := 0; col < d; col++ {
		result.Factors[col] = pawnFactor(columnOf(x, col), y, slices)
	}
	return result
}

// pawnFactor runs spec.md §4.I steps 1-5 for a single factor column.
func pawnFactor(xcol, y []float64, slices int) Summary {
	bounds := quantileBoundaries(xcol, slices)
	stats := make([]float64, 0, slices)
	for s := 1; s <= slices; s++ {
		idx := sliceIndices(xcol, bounds, s)
		if len(idx) == 0 {
			continue
		}
		ySlice := gather(y, idx)
		d := twoSampleKS(ySlice, y)
		stats = append(stats, ksScaled(d, len(ySlice), len(y)))
	}
	return summarize(stats)
}

func columnOf(x [][]float64, col int) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = row[col]
	}
	return out
}

// TemporalPAWN applies PAWNIndex repeatedly to prefix-mean outcomes,
// producing a D × 6 × T tensor (spec.md §4.I "Temporal PAWN"). y is T
// columns of length-N outcome vectors (y[t][i] is row i's outcome at
// time t); the loop keeps a running cumulative mean through each t and
// hands it to PAWNIndex. Each time-slice's six summary values are then
// column-normalized (max-scaled) across factors, per the spec's "aid
// comparison" requirement.
func TemporalPAWN(x [][]float64, y [][]float64, slices int) []PAWNResult {
	out := make([]PAWNResult, len(y))
	prefix := make([]float64, len(y[0]))
	count := 0
	for t, outcomes := range y {
		count++
		for i, v := range outcomes {
			prefix[i] += (v - prefix[i]) / float64(count)
		}
		cumMean := append([]float64(nil), prefix...)
		out[t] = PAWNIndex(x, cumMean, slices)
	}
	normalizeSummaries(out)
	return out
}

// normalizeSummaries max-scales each of the six summary statistics
// independently across factors within each time slice, in place.
func normalizeSummaries(results []PAWNResult) {
	for t := range results {
		factors := results[t].Factors
		if len(factors) == 0 {
			continue
		}
		maxOf := func(get func(Summary) float64) float64 {
			m := 0.0
			for _, f := range factors {
				if v := get(f); v > m {
					m = v
				}
			}
			return m
		}
		scale := func(get func(Summary) float64, set func(*Summary, float64)) {
			m := maxOf(get)
			if m == 0 {
				return
			}
			for i := range factors {
				set(&factors[i], get(factors[i])/m)
			}
		}
		scale(func(s Summary) float64 { return s.Min }, func(s *Summary, v float64) { s.Min = v })
		scale(func(s Summary) float64 { return s.Mean }, func(s *Summary, v float64) { s.Mean = v })
		scale(func(s Summary) float64 { return s.Median }, func(s *Summary, v float64) { s.Median = v })
		scale(func(s Summary) float64 { return s.Max }, func(s *Summary, v float64) { s.Max = v })
		scale(func(s Summary) float64 { return s.Std }, func(s *Summary, v float64) { s.Std = v })
		scale(func(s Summary) float64 { return s.CV }, func(s *Summary, v float64) { s.CV = v })
	}
}
