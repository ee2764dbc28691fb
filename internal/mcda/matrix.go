// Package mcda implements the multi-criteria decision matrix builder
// (spec.md §4.A), the three rankers (§4.B), and the spatial-spread filter
// (§4.C), built on gonum's dense matrices for the column/row reductions
// the normalization and ranking steps need, and on spec.md §9's "dynamic
// dispatch over MCDA methods" design note.
package mcda

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CriteriaOrder is the canonical, deterministic column ordering for the
// decision matrix (spec.md §3 and §4.A: "Column order is deterministic").
// A criterion absent from a scenario's weight vector (weight == 0) is
// dropped by the projection step but never reordered.
var CriteriaOrder = []string{
	"in_connectivity",
	"out_connectivity",
	"heat_prob",
	"wave_prob",
	"low_cover",
	"high_cover",
	"seed_priority",
	"shade_priority",
	"available_space",
}

// Table is the candidate-locations table with one column per criterion,
// input to BuildMatrix.
type Table struct {
	LocationIDs []int
	Columns     map[string][]float64 // criterion name -> values, aligned with LocationIDs
}

// ToleranceRule is a single risk-filter rule: keep rows whose value for
// Criterion satisfies (value Op Threshold).
type ToleranceRule struct {
	Criterion string
	Op        string // one of "<", "<=", ">", ">="
	Threshold float64
}

func (r ToleranceRule) evaluate(v float64) bool {
	switch r.Op {
	case "<":
		return v < r.Threshold
	case "<=":
		return v <= r.Threshold
	case ">":
		return v > r.Threshold
	case ">=":
		return v >= r.Threshold
	default:
		return false
	}
}

// Matrix is the dense, normalized, weighted decision matrix: one row per
// surviving location, one column per criterion with a non-zero weight. It
// wraps *mat.Dense (no labels of its own) with parallel ID and name slices,
// since gonum's mat.Dense carries no labels.
type Matrix struct {
	Data          *mat.Dense
	LocationIDs   []int
	CriteriaNames []string
	Weights       []float64 // L1-normalized, aligned with CriteriaNames
}

// Rows returns the number of surviving locations.
func (m *Matrix) Rows() int {
	if m.Data == nil {
		return 0
	}
	r, _ := m.Data.Dims()
	return r
}

// Cols returns the number of criteria columns.
func (m *Matrix) Cols() int {
	if m.Data == nil {
		return 0
	}
	_, c := m.Data.Dims()
	return c
}

// BuildMatrix implements spec.md §4.A: risk filter, projection onto
// non-zero-weight criteria (in CriteriaOrder), vector-L2 column
// normalization, and weighting by the L1-normalized weight vector.
func BuildMatrix(table Table, rules []ToleranceRule, weights map[string]float64) (*Matrix, error) {
	survivingIdx := riskFilter(table, rules)
	if len(survivingIdx) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	names := make([]string, 0, len(CriteriaOrder))
	for _, name := range CriteriaOrder {
		if weights[name] != 0 {
			if _, ok := table.Columns[name]; ok {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("mcda: no surviving criteria with non-zero weight")
	}

	rows := len(survivingIdx)
	cols := len(names)
	data := mat.NewDense(rows, cols, nil)
	locationIDs := make([]int, rows)
	for ri, idx := range survivingIdx {
		locationIDs[ri] = table.LocationIDs[idx]
		for ci, name := range names {
			data.Set(ri, ci, table.Columns[name][idx])
		}
	}

	normalizeColumnsL2(data)

	w := make([]float64, cols)
	wSum := 0.0
	for ci, name := range names {
		w[ci] = weights[name]
		wSum += weights[name]
	}
	if wSum > 0 {
		for ci := range w {
			w[ci] /= wSum
		}
	}
	for ci := range names {
		col := mat.Col(nil, ci, data)
		for ri := range col {
			col[ri] *= w[ci]
		}
		data.SetCol(ci, col)
	}

	return &Matrix{Data: data, LocationIDs: locationIDs, CriteriaNames: names, Weights: w}, nil
}

func riskFilter(table Table, rules []ToleranceRule) []int {
	survive := make([]int, 0, len(table.LocationIDs))
	for i := range table.LocationIDs {
		ok := true
		for _, rule := range rules {
			col, exists := table.Columns[rule.Criterion]
			if !exists {
				continue
			}
			if !rule.evaluate(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			survive = append(survive, i)
		}
	}
	return survive
}

// normalizeColumnsL2 divides each column by its L2 norm in place. A
// zero-variance (all-zero) column is left as zero — the NumericDegeneracy
// path from spec.md §7: replaced with 0, no user-visible failure.
func normalizeColumnsL2(data *mat.Dense) {
	rows, cols := data.Dims()
	for c := 0; c < cols; c++ {
		sumSq := 0.0
		for r := 0; r < rows; r++ {
			v := data.At(r, c)
			sumSq += v * v
		}
		norm := math.Sqrt(sumSq)
		if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			continue
		}
		for r := 0; r < rows; r++ {
			data.Set(r, c, data.At(r, c)/norm)
		}
	}
}
