package sensitivity

import (
	"math"
	"math/rand"
	"sort"
)

// DefaultResamples and DefaultCI are spec.md §4.I's outcome-map bootstrap
// defaults: 100 resamples, 95% percentile CI.
const (
	DefaultResamples = 100
	DefaultCI        = 0.95
)

// OutcomeCell is one (slice, factor) entry of an outcome map.
type OutcomeCell struct {
	Mean, LowerCI, UpperCI float64
	Missing                bool
}

// BehavioralRule evaluates a column-normalized output row and reports
// whether it counts as "behavioral", per spec.md §4.I's outcome-mapping
// step.
type BehavioralRule func(normalized float64) bool

// OutcomeMap computes spec.md §4.I's outcome map: for each target factor
// and each of slices quantile slices, the mean, lower-CI, and upper-CI of
// the behavioral indicator via balanced-bootstrap resampling. rng drives
// the resampling; callers seed it for reproducibility. An empty
// behavioral set overall yields every cell missing.
func OutcomeMap(x [][]float64, y []float64, rule BehavioralRule, slices, resamples int, ci float64, rng *rand.Rand) [][]OutcomeCell {
	if slices <= 0 {
		slices = DefaultSlices
	}
	if resamples <= 0 {
		resamples = DefaultResamples
	}
	if ci <= 0 || ci >= 1 {
		ci = DefaultCI
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	normalized := columnNormalize(y)
	behavioral := make([]float64, len(normalized))
	anyBehavioral := false
	for i, v := range normalized {
		if rule(v) {
			behavioral[i] = 1
			anyBehavioral = true
		}
	}

	d := 0
	if len(x) > 0 {
		d = len(x[0])
	}
	out := make([][]OutcomeCell, slices)
	for s := range out {
		out[s] = make([]OutcomeCell, d)
	}
	if !anyBehavioral {
		for s := range out {
			for col := range out[s] {
				out[s][col] = OutcomeCell{Missing: true}
			}
		}
		return out
	}

	for col := 0; col < d; col++ {
		xcol := columnOf(x, col)
		bounds := quantileBoundaries(xcol, slices)
		for s := 1; s <= slices; s++ {
			idx := sliceIndices(xcol, bounds, s)
			if len(idx) == 0 {
				out[s-1][col] = OutcomeCell{Missing: true}
				continue
			}
			sample := gather(behavioral, idx)
			mean, lo, hi := balancedBootstrapCI(sample, resamples, ci, rng)
			out[s-1][col] = OutcomeCell{Mean: mean, LowerCI: lo, UpperCI: hi}
		}
	}
	return out
}

func columnNormalize(y []float64) []float64 {
	m := 0.0
	for _, v := range y {
		if v > m {
			m = v
		}
	}
	out := make([]float64, len(y))
	if m == 0 {
		return out
	}
	for i, v := range y {
		out[i] = v / m
	}
	return out
}

// balancedBootstrapCI resamples sample with replacement resamples times,
// computing the mean each time, and returns the overall mean plus the
// percentile-CI bounds at level ci. "Balanced" here follows spec.md's
// naming for the scheme: every original observation is guaranteed equal
// representation across the pooled resample indices before shuffling,
// rather than each resample draw being fully independent.
func balancedBootstrapCI(sample []float64, resamples int, ci float64, rng *rand.Rand) (mean, lower, upper float64) {
	n := len(sample)
	if n == 0 {
		return 0, 0, 0
	}

	pool := make([]int, 0, n*resamples)
	for r := 0; r < resamples; r++ {
		for i := 0; i < n; i++ {
			pool = append(pool, i)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	means := make([]float64, resamples)
	for r := 0; r < resamples; r++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += sample[pool[r*n+i]]
		}
		means[r] = sum / float64(n)
	}
	sort.Float64s(means)

	alpha := (1 - ci) / 2
	lowerIdx := int(alpha * float64(resamples))
	upperIdx := int((1 - alpha) * float64(resamples))
	if upperIdx >= resamples {
		upperIdx = resamples - 1
	}

	total := 0.0
	for _, v := range means {
		total += v
	}
	mean = total / float64(resamples)
	lower = means[lowerIdx]
	upper = means[upperIdx]
	if math.IsNaN(mean) {
		mean = 0
	}
	return mean, lower, upper
}
