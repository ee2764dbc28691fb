package mcda

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestBuildMatrixNormalizationAndWeighting(t *testing.T) {
	table := Table{
		LocationIDs: []int{1, 2, 3},
		Columns: map[string][]float64{
			"in_connectivity":  {1, 2, 3},
			"out_connectivity": {4, 5, 6},
		},
	}
	weights := map[string]float64{"in_connectivity": 1, "out_connectivity": 1}

	m, err := BuildMatrix(table, nil, weights)
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if m.Rows() != 3 || m.Cols() != 2 {
		t.Fatalf("unexpected dims %dx%d", m.Rows(), m.Cols())
	}

	// Verify weights L1-normalized to 0.5 each.
	for _, w := range m.Weights {
		if !approxEqual(w, 0.5, 1e-9) {
			t.Errorf("expected weight 0.5, got %v", w)
		}
	}

	// Verify each weighted column, divided back out by its weight,
	// satisfies sum of squares == 1 (round-trip of normalization).
	for c := 0; c < m.Cols(); c++ {
		sumSq := 0.0
		for r := 0; r < m.Rows(); r++ {
			v := m.Data.At(r, c) / m.Weights[c]
			sumSq += v * v
		}
		if !approxEqual(sumSq, 1.0, 1e-9) {
			t.Errorf("column %d: sum of squares = %v, want 1", c, sumSq)
		}
	}
}

func TestBuildMatrixRiskFilterEmptySet(t *testing.T) {
	table := Table{
		LocationIDs: []int{1, 2},
		Columns: map[string][]float64{
			"heat_prob": {0.9, 0.95},
		},
	}
	rules := []ToleranceRule{{Criterion: "heat_prob", Op: "<", Threshold: 0.5}}
	weights := map[string]float64{"heat_prob": 1}

	_, err := BuildMatrix(table, rules, weights)
	if err != ErrEmptyCandidateSet {
		t.Fatalf("expected ErrEmptyCandidateSet, got %v", err)
	}
}

func TestBuildMatrixZeroWeightCriterionExcluded(t *testing.T) {
	table := Table{
		LocationIDs: []int{1, 2},
		Columns: map[string][]float64{
			"in_connectivity":  {1, 2},
			"out_connectivity": {5, 9},
		},
	}
	weights := map[string]float64{"in_connectivity": 1, "out_connectivity": 0}

	m, err := BuildMatrix(table, nil, weights)
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if m.Cols() != 1 {
		t.Fatalf("expected zero-weight criterion to be dropped, got %d columns", m.Cols())
	}
	if m.CriteriaNames[0] != "in_connectivity" {
		t.Errorf("unexpected surviving criterion %q", m.CriteriaNames[0])
	}
}

func TestTOPSISThreeSitesTwoCriteria(t *testing.T) {
	table := Table{
		LocationIDs: []int{1, 2, 3},
		Columns: map[string][]float64{
			"in_connectivity":  {1, 2, 3},
			"out_connectivity": {4, 5, 6},
		},
	}
	weights := map[string]float64{"in_connectivity": 0.5, "out_connectivity": 0.5}
	m, err := BuildMatrix(table, nil, weights)
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}

	ranked, err := Rank(2, m)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	scoreByID := map[int]float64{}
	for _, r := range ranked {
		scoreByID[r.LocationID] = r.Score
	}
	if !approxEqual(scoreByID[1], 0.0, 1e-9) {
		t.Errorf("site 1 score = %v, want ~0", scoreByID[1])
	}
	if !approxEqual(scoreByID[2], 0.5, 1e-9) {
		t.Errorf("site 2 score = %v, want ~0.5", scoreByID[2])
	}
	if !approxEqual(scoreByID[3], 1.0, 1e-9) {
		t.Errorf("site 3 score = %v, want ~1.0", scoreByID[3])
	}
}

func TestOrderSumTieBreakByLocationID(t *testing.T) {
	m := &Matrix{
		LocationIDs: []int{1, 2, 3},
	}
	m.Data = mat.NewDense(3, 2, []float64{
		1, 1,
		1, 1,
		2, 2,
	})

	ranked, err := Rank(1, m)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked[0].LocationID != 3 {
		t.Fatalf("expected site 3 ranked first, got %d", ranked[0].LocationID)
	}
	if ranked[1].LocationID != 1 || ranked[2].LocationID != 2 {
		t.Fatalf("expected tie broken as site1 > site2 by ascending id: got order %v", idList(ranked))
	}
}

func TestVIKORDegenerateColumnMatchesOrderSumOnRemainingCriterion(t *testing.T) {
	m := &Matrix{LocationIDs: []int{1, 2, 3}}
	// Column 2 is constant (degenerate) and holds the matrix maximum F, so
	// its A entries are all 0; column 1 varies and alone drives the order.
	m.Data = mat.NewDense(3, 2, []float64{
		0.1, 0.5,
		0.2, 0.5,
		0.05, 0.5,
	})

	vikorRanked, err := Rank(3, m)
	if err != nil {
		t.Fatalf("Rank(VIKOR): %v", err)
	}

	orderSumMatrix := &Matrix{LocationIDs: []int{1, 2, 3}, Data: mat.NewDense(3, 1, []float64{0.1, 0.2, 0.05})}
	orderSumRanked, err := Rank(1, orderSumMatrix)
	if err != nil {
		t.Fatalf("Rank(OrderSum): %v", err)
	}

	for i := range vikorRanked {
		if vikorRanked[i].LocationID != orderSumRanked[i].LocationID {
			t.Fatalf("VIKOR order %v diverges from OrderSum-on-remaining-criterion order %v", idList(vikorRanked), idList(orderSumRanked))
		}
	}
}

func TestRankUnknownMethod(t *testing.T) {
	m := &Matrix{LocationIDs: []int{1}, Data: mat.NewDense(1, 1, []float64{1})}
	if _, err := Rank(99, m); err != ErrUnknownMCDAMethod {
		t.Fatalf("expected ErrUnknownMCDAMethod, got %v", err)
	}
}

func idList(sites []RankedSite) []int {
	ids := make([]int, len(sites))
	for i, s := range sites {
		ids[i] = s.LocationID
	}
	return ids
}
