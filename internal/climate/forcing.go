// Package climate holds the read-only environmental forcing arrays consumed
// by a scenario run: degree-heating-week (DHW) and wave-stress time series.
// spec.md §1 excludes re-running environmental scenario generation, so this
// package is a pure accessor over externally supplied arrays — there is no
// live forcing source here, only static arrays loaded ahead of time.
package climate

import "fmt"

// Forcing holds DHW and wave-stress arrays shaped T × N_loc × R, where R is
// the number of environmental replicates. Both arrays are stored flat with
// row-major (t, l, r) strides because gonum's mat.Dense is strictly 2-D and
// does not fit a third axis cleanly — this is the one array type in the
// module kept on plain []float64 with explicit stride helpers.
type Forcing struct {
	T, N, R int
	DHW     []float64
	Wave    []float64
}

// New allocates a Forcing with the given dimensions, validating that both
// slices already match T*N*R in length.
func New(t, n, r int, dhw, wave []float64) (*Forcing, error) {
	want := t * n * r
	if len(dhw) != want {
		return nil, fmt.Errorf("climate: dhw has %d elements, want %d (T=%d N=%d R=%d)", len(dhw), want, t, n, r)
	}
	if len(wave) != want {
		return nil, fmt.Errorf("climate: wave has %d elements, want %d (T=%d N=%d R=%d)", len(wave), want, t, n, r)
	}
	return &Forcing{T: t, N: n, R: r, DHW: dhw, Wave: wave}, nil
}

// index computes the flat offset for (t, l, r), all zero-based.
func (f *Forcing) index(t, l, r int) int {
	return (t*f.N+l)*f.R + r
}

// DHWAt returns the DHW value at (t, l, r), all zero-based.
func (f *Forcing) DHWAt(t, l, r int) float64 { return f.DHW[f.index(t, l, r)] }

// WaveAt returns the wave-stress value at (t, l, r), all zero-based.
func (f *Forcing) WaveAt(t, l, r int) float64 { return f.Wave[f.index(t, l, r)] }

// DHWStep copies the DHW vector over locations for (t, r) into dst, which
// must have length N. Returns dst for convenient chaining.
func (f *Forcing) DHWStep(t, r int, dst []float64) []float64 {
	for l := 0; l < f.N; l++ {
		dst[l] = f.DHWAt(t, l, r)
	}
	return dst
}

// WaveStep copies the wave-stress vector over locations for (t, r) into dst,
// which must have length N. Returns dst for convenient chaining.
func (f *Forcing) WaveStep(t, r int, dst []float64) []float64 {
	for l := 0; l < f.N; l++ {
		dst[l] = f.WaveAt(t, l, r)
	}
	return dst
}
