// Package domain holds the static world model: the reef location table, the
// connectivity and distance matrices, coral species parameter tables, and
// the simulation constants shared by every scenario. A Domain is built once
// and never mutated afterward — every scenario worker reads it concurrently.
package domain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// LonLat is a WGS84 geographic coordinate.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Location is a single reef polygon. The slice position a Location occupies
// in Domain.Locations is its index — the primary key used throughout every
// matrix dimension (criteria matrices, connectivity rows/columns, the cover
// cube's location axis).
type Location struct {
	SiteID   string  `json:"site_id"`
	UniqueID string  `json:"unique_id"`
	Area     float64 `json:"area"`      // m²
	DepthMed float64 `json:"depth_med"` // m
	K        float64 `json:"k"`         // carrying-capacity fraction in [0,1]
	Centroid LonLat  `json:"centroid"`
}

// NBins is the number of (species × size-class) coral-cover bins tracked
// per location.
const NBins = 36

// SpeciesBin is one (taxon, size-class) row of the coral parameter table.
// SizeClass is 1-based within its taxon.
type SpeciesBin struct {
	Taxon            string
	SizeClass        int
	GrowthRate       float64
	MortalityRate    float64
	BleachResistance float64
	ColonyAreaM2     float64
	FecundityPerM2   float64

	// WaveMort90 is the wave-induced mortality fraction at the 90th
	// percentile of wave stress for this bin, used both by the wave_prob
	// decision criterion (as a location-level average) and directly by the
	// ecosystem stepper's combined proportional-loss step (spec.md §4.F.6).
	WaveMort90 float64

	// NaturalAdaptation and AssistedAdaptation are per-bin DHW offsets
	// (in degree-heating-weeks) subtracted from the raw stress signal
	// before it drives larval production attenuation and bleaching
	// mortality (spec.md §4.F.1, §4.F.5). AssistedAdaptation represents
	// selective breeding / assisted gene flow; NaturalAdaptation
	// represents background thermal tolerance.
	NaturalAdaptation  float64
	AssistedAdaptation float64

	// LPDHWCoeff and LPDPrm2 parameterize the Gompertz-shaped larval
	// production attenuation curve for this bin's taxon (spec.md §4.F.1).
	LPDHWCoeff float64
	LPDPrm2    float64

	// GompertzP1 and GompertzP2 parameterize the bleaching-mortality
	// survival curve for this bin (spec.md §4.F.5).
	GompertzP1 float64
	GompertzP2 float64
}

// enhancedSeedTaxa names the two taxa eligible for out-planting, per
// spec.md §4.F.7 ("tabular and corymbose Acropora in size-class 2").
var enhancedSeedTaxa = [2]string{"tabular_acropora", "corymbose_acropora"}

// Timing holds domain-level intervention-timing defaults, used when a
// scenario row leaves its own timing fields at zero value.
type Timing struct {
	SeedStartYear  int
	SeedYears      int
	SeedFreq       int
	ShadeStartYear int
	ShadeYears     int
	ShadeFreq      int
}

// Domain is the static, read-only world shared by every scenario.
type Domain struct {
	Locations []Location

	// Connectivity is the N_loc × N_loc larval-export transition matrix.
	// Rows sum to ≤ 1 (row-stochastic, per spec.md §3).
	Connectivity *mat.Dense

	// Distances is the precomputed N_loc × N_loc pairwise distance matrix,
	// derived from Locations' centroids.
	Distances *mat.Dense

	// ConnectivityRank is a per-location scalar summarizing inbound
	// connectivity strength, normalized to [0,1]. Used alongside
	// StrongestPredecessor to build seed/shade priority criteria.
	ConnectivityRank []float64

	// StrongestPredecessor[l] is the index of the location whose outbound
	// connectivity contributes the largest inflow to location l.
	StrongestPredecessor []int

	// Species is the 36-row (taxon × size-class) parameter table, ordered
	// consistently with the Y[t, s, l] cover cube's s axis.
	Species []SpeciesBin

	// TaxonBins maps each taxon name to its bin indices, in SizeClass order.
	TaxonBins map[string][]int

	// TaxonOrder lists taxon names in first-appearance order within
	// Species, giving the stepper's species-group axis a deterministic
	// iteration order without depending on Go's randomized map order.
	TaxonOrder []string

	// Horizon is the simulation length T, in years.
	Horizon int

	// NInterventionSites is n_int, the number of sites selected per
	// intervention decision.
	NInterventionSites int

	DefaultTiming Timing

	// DHWMaxTotal caps the DHW range the larval-production Gompertz curve
	// (spec.md §4.F.1) is normalized against. It is a simulation constant
	// in the sense of spec.md §3, not a per-species parameter, so it lives
	// on Domain rather than SpeciesBin.
	DHWMaxTotal float64

	// PotentialSettlerCover is the fraction of a destination location's
	// available space a single unit of exported larval production can
	// settle into, per spec.md §4.F.3's recruitment formula.
	PotentialSettlerCover float64
}

// defaultDHWMaxTotal and defaultPotentialSettlerCover are the constants New
// assigns when a caller has no domain-specific override; both are ordinary
// simulation constants (spec.md §3) rather than externally loaded data, so
// they are not constructor parameters.
const (
	defaultDHWMaxTotal           = 20.0
	defaultPotentialSettlerCover = 1e-4
)

// ErrShapeMismatch is returned when external data does not match the shapes
// Domain construction requires. It is fatal at Domain construction time
// (spec.md §7): the batch driver never starts if this is returned.
type ErrShapeMismatch struct {
	Reason string
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %s", e.Reason)
}

// New builds a Domain from externally loaded data, validating shapes and
// deriving the connectivity-rank and strongest-predecessor indices. It is
// the sole constructor: a Domain is never assembled piecemeal.
func New(locations []Location, connectivity *mat.Dense, species []SpeciesBin, horizon, nInt int, timing Timing) (*Domain, error) {
	n := len(locations)
	if n == 0 {
		return nil, &ErrShapeMismatch{Reason: "empty location table"}
	}
	rows, cols := connectivity.Dims()
	if rows != n || cols != n {
		return nil, &ErrShapeMismatch{Reason: fmt.Sprintf("connectivity matrix is %dx%d, want %dx%d", rows, cols, n, n)}
	}
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			rowSum += connectivity.At(i, j)
		}
		if rowSum > 1.0+1e-6 {
			return nil, &ErrShapeMismatch{Reason: fmt.Sprintf("connectivity row %d sums to %.6f, exceeds 1", i, rowSum)}
		}
	}
	if len(species) != NBins {
		return nil, &ErrShapeMismatch{Reason: fmt.Sprintf("species table has %d rows, want %d", len(species), NBins)}
	}

	d := &Domain{
		Locations:             locations,
		Connectivity:          connectivity,
		Distances:             pairwiseDistances(locations),
		Species:               species,
		TaxonBins:             taxonBinIndex(species),
		TaxonOrder:            taxonOrder(species),
		Horizon:               horizon,
		NInterventionSites:    nInt,
		DefaultTiming:         timing,
		DHWMaxTotal:           defaultDHWMaxTotal,
		PotentialSettlerCover: defaultPotentialSettlerCover,
	}
	d.ConnectivityRank, d.StrongestPredecessor = connectivityDerivatives(connectivity)
	return d, nil
}

// N returns the number of locations.
func (d *Domain) N() int { return len(d.Locations) }

// CoverIndex returns the flat index of (bin s, location l) within a cover
// cube shaped (NBins, N), species-major. Shared by internal/selection and
// internal/ecosystem so both packages agree on layout without importing
// each other.
func (d *Domain) CoverIndex(s, l int) int { return s*d.N() + l }

// InConnectivity returns location l's inbound connectivity: the column sum
// of the connectivity matrix.
func (d *Domain) InConnectivity(l int) float64 {
	n := d.N()
	sum := 0.0
	for k := 0; k < n; k++ {
		sum += d.Connectivity.At(k, l)
	}
	return sum
}

// OutConnectivity returns location l's outbound connectivity: the row sum
// of the connectivity matrix.
func (d *Domain) OutConnectivity(l int) float64 {
	n := d.N()
	sum := 0.0
	for k := 0; k < n; k++ {
		sum += d.Connectivity.At(l, k)
	}
	return sum
}

// MeanWaveMort90 averages WaveMort90 across the species table, used as the
// location-independent scalar multiplier for the wave_prob decision
// criterion (spec.md §4.D step 3).
func (d *Domain) MeanWaveMort90() float64 {
	if len(d.Species) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range d.Species {
		sum += s.WaveMort90
	}
	return sum / float64(len(d.Species))
}

// EnhancedSeedBins returns the bin indices of the two out-plantable taxa at
// size-class 2, per spec.md §4.F.7. Missing taxa are simply omitted.
func (d *Domain) EnhancedSeedBins() []int {
	var bins []int
	for _, taxon := range enhancedSeedTaxa {
		for _, idx := range d.TaxonBins[taxon] {
			if d.Species[idx].SizeClass == 2 {
				bins = append(bins, idx)
			}
		}
	}
	return bins
}

// MedianPairwiseDistance returns the median of all off-diagonal entries of
// the distance matrix, used to derive d_min for the spatial-spread filter.
func (d *Domain) MedianPairwiseDistance() float64 {
	n := d.N()
	vals := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			vals = append(vals, d.Distances.At(i, j))
		}
	}
	return median(vals)
}

func taxonBinIndex(species []SpeciesBin) map[string][]int {
	out := make(map[string][]int)
	for i, s := range species {
		out[s.Taxon] = append(out[s.Taxon], i)
	}
	return out
}

// taxonOrder lists taxon names in first-appearance order within species,
// giving the ecosystem stepper's species-group axis a deterministic
// iteration order.
func taxonOrder(species []SpeciesBin) []string {
	seen := make(map[string]bool, len(species))
	var order []string
	for _, s := range species {
		if !seen[s.Taxon] {
			seen[s.Taxon] = true
			order = append(order, s.Taxon)
		}
	}
	return order
}

// pairwiseDistances computes the great-circle (haversine) distance in
// kilometers between every pair of location centroids. No library in the
// retrieval pack offers a geospatial distance routine, so this is
// stdlib-only math.
func pairwiseDistances(locations []Location) *mat.Dense {
	n := len(locations)
	m := mat.NewDense(n, n, nil)
	const earthRadiusKm = 6371.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := haversineKm(locations[i].Centroid, locations[j].Centroid, earthRadiusKm)
			m.Set(i, j, d)
			m.Set(j, i, d)
		}
	}
	return m
}

func haversineKm(a, b LonLat, radius float64) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * radius * math.Asin(math.Sqrt(h))
}

// connectivityDerivatives computes the per-location connectivity rank
// (normalized inbound connectivity strength) and the strongest-predecessor
// index (the source contributing the largest inflow to each location).
func connectivityDerivatives(c *mat.Dense) (rank []float64, predecessor []int) {
	n, _ := c.Dims()
	inflow := make([]float64, n)
	predecessor = make([]int, n)
	for l := 0; l < n; l++ {
		best := -1
		bestVal := -1.0
		for k := 0; k < n; k++ {
			v := c.At(k, l)
			inflow[l] += v
			if v > bestVal {
				bestVal = v
				best = k
			}
		}
		predecessor[l] = best
	}
	maxTotal := 0.0
	for _, v := range inflow {
		if v > maxTotal {
			maxTotal = v
		}
	}
	rank = make([]float64, n)
	if maxTotal > 0 {
		for l := 0; l < n; l++ {
			rank[l] = inflow[l] / maxTotal
		}
	}
	return rank, predecessor
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
