// Package sensitivity implements the PAWN sensitivity index, the
// regional-sensitivity-analysis (RSA) k-sample Anderson-Darling screen,
// and balanced-bootstrap outcome mapping (spec.md §4.I), all driven by
// the same quantile-slicing scheme over an input matrix X and an output
// vector y.
package sensitivity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is the six-number reduction spec.md §4.I step 4 takes over a
// factor's per-slice statistic values.
type Summary struct {
	Min, Mean, Median, Max, Std, CV float64
}

// summarize reduces a factor's per-slice statistic values (with missing
// slices already excluded) to a Summary, per spec.md §4.I step 4. An
// empty input yields a zero Summary (non-finite results are replaced
// with 0 per step 5).
func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	std := stat.StdDev(sorted, nil)
	cv := 0.0
	if mean != 0 {
		cv = std / mean
	}
	s := Summary{
		Min:    sorted[0],
		Mean:   mean,
		Median: median(sorted),
		Max:    sorted[len(sorted)-1],
		Std:    std,
		CV:     cv,
	}
	return sanitizeSummary(s)
}

func sanitizeSummary(s Summary) Summary {
	clean := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	return Summary{
		Min:    clean(s.Min),
		Mean:   clean(s.Mean),
		Median: clean(s.Median),
		Max:    clean(s.Max),
		Std:    clean(s.Std),
		CV:     clean(s.CV),
	}
}

// median assumes sorted is already ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantileBoundaries computes the S+1 quantile boundaries of col at
// 0, 1/S, ..., 1, per spec.md §4.I step 1.
func quantileBoundaries(col []float64, slices int) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)
	bounds := make([]float64, slices+1)
	for i := 0; i <= slices; i++ {
		bounds[i] = stat.Quantile(float64(i)/float64(slices), stat.Empirical, sorted, nil)
	}
	return bounds
}

// sliceIndices returns the row indices of col falling in the s-th slice
// (1-based) given its quantile boundaries, using spec.md §4.I step 2's
// inclusivity rule: left-inclusive-right-inclusive for s=1,
// left-exclusive-right-inclusive otherwise.
func sliceIndices(col []float64, bounds []float64, s int) []int {
	lo, hi := bounds[s-1], bounds[s]
	var out []int
	for i, v := range col {
		in := false
		if s == 1 {
			in = v >= lo && v <= hi
		} else {
			in = v > lo && v <= hi
		}
		if in {
			out = append(out, i)
		}
	}
	return out
}

func gather(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}

// twoSampleKS computes the two-sample Kolmogorov-Smirnov statistic
// D = sup|F_a - F_b| between two empirical distributions, per spec.md
// §4.I step 3. Implemented directly: gonum's stat package has no
// two-sample KS test, and no dependency in the pack offers one.
func twoSampleKS(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := append([]float64(nil), a...)
	sb := append([]float64(nil), b...)
	sort.Float64s(sa)
	sort.Float64s(sb)

	pooled := make([]float64, 0, len(sa)+len(sb))
	pooled = append(pooled, sa...)
	pooled = append(pooled, sb...)
	sort.Float64s(pooled)

	maxD := 0.0
	for _, x := range pooled {
		fa := ecdf(sa, x)
		fb := ecdf(sb, x)
		d := math.Abs(fa - fb)
		if d > maxD {
			maxD = d
		}
	}
	return maxD
}

// ecdf returns the fraction of sorted values <= x.
func ecdf(sorted []float64, x float64) float64 {
	n := sort.SearchFloat64s(sorted, math.Nextafter(x, math.Inf(1)))
	return float64(n) / float64(len(sorted))
}

// ksScaled applies spec.md §4.I step 3's sample-size scaling to a raw KS
// statistic: sqrt((n_s*N)/(n_s+N)) * D.
func ksScaled(d float64, nSlice, nAll int) float64 {
	if nSlice+nAll == 0 {
		return 0
	}
	factor := math.Sqrt(float64(nSlice*nAll) / float64(nSlice+nAll))
	return factor * d
}

// andersonDarlingK computes the k-sample Anderson-Darling A²k statistic
// between two samples (spec.md §4.I's RSA step), following Scholz &
// Stephens (1987). Implemented directly for the same reason as
// twoSampleKS: no pack dependency offers a k-sample A² test.
func andersonDarlingK(a, b []float64) (float64, bool) {
	if len(a) < 2 || len(b) < 2 {
		return 0, false
	}
	pooled := make([]float64, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	sort.Float64s(pooled)

	distinct := distinctValues(pooled)
	if len(distinct) < 2 {
		return 0, false
	}

	nTotal := len(pooled)
	samples := [][]float64{a, b}

	var sum float64
	for _, z := range distinct[:len(distinct)-1] {
		bj := countLE(pooled, z)
		if bj == 0 || bj == nTotal {
			continue
		}
		mSum := 0.0
		for _, sample := range samples {
			ni := float64(len(sample))
			mi := float64(countLE(sample, z))
			// Scholz-Stephens statistic term for this sample at this z.
			term := math.Pow(float64(nTotal)*mi-float64(bj)*ni, 2) / (ni * float64(bj) * float64(nTotal-bj))
			mSum += term
		}
		sum += mSum
	}

	a2 := sum / float64(nTotal)
	if math.IsNaN(a2) || math.IsInf(a2, 0) {
		return 0, false
	}
	return a2, true
}

func distinctValues(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return nil
	}
	out := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func countLE(values []float64, z float64) int {
	n := 0
	for _, v := range values {
		if v <= z {
			n++
		}
	}
	return n
}

// adVariance computes the Scholz-Stephens variance approximation for the
// k-sample A² statistic under the null of identical distributions.
func adVariance(k, n int, samples [][]float64) float64 {
	h := 0.0
	for i := 1; i < n; i++ {
		h += 1.0 / float64(i)
	}
	g := 0.0
	for i := 1; i < n-1; i++ {
		inner := 0.0
		for j := i + 1; j < n; j++ {
			inner += 1.0 / float64(n-j)
		}
		g += inner / float64(i)
	}
	a := h*(4*g-6)/float64(k-1) - (2*float64(n) - 6)
	b := (6*float64(n)-8)*g - 4*h*h + 2*math.Pow(float64(n), 2) - 4*float64(n)
	c := h - (2*float64(n)-6)/float64(n)
	d := (float64(2*n-6)*h - h*h + 6*float64(k-1)*float64(n-2)) / float64(n)

	sumInvN := 0.0
	for _, s := range samples {
		sumInvN += 1.0 / float64(len(s))
	}
	bigN := float64(n)
	variance := (a*bigN*bigN+b*bigN+c)/float64((bigN-1)*(bigN-2)*(bigN-3)) + d*sumInvN
	return variance
}
