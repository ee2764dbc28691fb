package ecosystem

// DerivFunc computes the instantaneous per-bin state derivative dY/dt given
// the current state. state and the returned slice are both flattened
// (NBins, N) cubes via domain.Domain.CoverIndex.
type DerivFunc func(state []float64) []float64

// Integrator advances a coral-cover state forward by span years given a
// derivative function. spec.md §1 excludes the growth ODE kernel itself
// from the core, specifying only "a fixed state-derivative contract" — no
// third-party ODE library appears anywhere in the retrieval pack, so this
// is a stdlib-only interface with one injectable reference implementation
// (explicit Euler) rather than an adopted dependency.
type Integrator interface {
	Integrate(y0 []float64, deriv DerivFunc, span float64) []float64
}

// EulerIntegrator is a fixed-step explicit-Euler reference implementation
// of Integrator, sufficient for the 1.0-year spans the stepper calls with
// (spec.md §4.F.8).
type EulerIntegrator struct {
	// Steps is the number of substeps taken across span. Zero defaults to 4.
	Steps int
}

// Integrate implements Integrator.
func (e EulerIntegrator) Integrate(y0 []float64, deriv DerivFunc, span float64) []float64 {
	steps := e.Steps
	if steps <= 0 {
		steps = 4
	}
	h := span / float64(steps)
	y := append([]float64(nil), y0...)
	for i := 0; i < steps; i++ {
		dy := deriv(y)
		for j := range y {
			y[j] += h * dy[j]
			if y[j] < 0 {
				y[j] = 0
			}
		}
	}
	return y
}
