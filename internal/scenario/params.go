// Package scenario holds the per-scenario parameter row and the pure
// intervention-year scheduler derived from it (spec.md §3, §4.E).
package scenario

// MCDA method identifiers, per spec.md §3. CF means "counterfactual" (no
// intervention); Unguided means random site selection.
const (
	MCDACounterfactual = -1
	MCDAUnguided       = 0
	MCDAOrderSum       = 1
	MCDATOPSIS         = 2
	MCDAVIKOR          = 3
)

// Weights holds the per-criterion weight vector shared by the decision
// matrix builder. Seeding and shading draw from the same struct via
// selection.Intent.Weights, per spec.md §9's intent-parameterization note.
type Weights struct {
	Wave            float64
	Heat            float64
	InConnectivity  float64
	OutConnectivity float64
	HighCover       float64
	LowCover        float64
	SeedPriority    float64
	ShadePriority   float64
}

// SpreadSettings configures the §4.C spatial-spread filter.
type SpreadSettings struct {
	Enable      bool
	MinDistFrac float64 // fraction of the median pairwise distance
	TopNPool    int     // candidate pool size to draw replacements from
}

// Params is a single row of the scenario parameter table (spec.md §3).
type Params struct {
	RCP        string
	MCDAMethod int

	// Seeding volumes per enhanced taxon (tabular, corymbose Acropora).
	SeedVolumePerTaxon [2]float64
	FoggingFraction    float64
	SRM                float64

	SeedStartYear  int
	SeedYears      int
	SeedFreqYears  int
	ShadeStartYear int
	ShadeYears     int
	ShadeFreqYears int

	Weights Weights

	DeployedCoralRiskTolerance float64
	DepthMin                   float64
	DepthOffset                float64

	Spread SpreadSettings
}

// SeedActive reports whether seeding is scheduled at all (any enhanced-taxon
// volume is positive).
func (p Params) SeedActive() bool {
	return p.SeedVolumePerTaxon[0] > 0 || p.SeedVolumePerTaxon[1] > 0
}

// ShadeActive reports whether shading/fogging is scheduled at all.
func (p Params) ShadeActive() bool {
	return p.SRM > 0 || p.FoggingFraction > 0
}

// SeedFields returns the scenario's first 24 numeric fields in a fixed,
// canonical order, used by internal/rngseed to derive the deterministic
// per-scenario PRNG seed (spec.md §5: "sum-of-integer-cast of the first 24
// fields").
func (p Params) SeedFields() [24]float64 {
	mcda := float64(0)
	switch p.MCDAMethod {
	case MCDACounterfactual:
		mcda = -1
	default:
		mcda = float64(p.MCDAMethod)
	}
	spread := 0.0
	if p.Spread.Enable {
		spread = 1.0
	}
	return [24]float64{
		mcda,
		p.SeedVolumePerTaxon[0],
		p.SeedVolumePerTaxon[1],
		p.FoggingFraction,
		p.SRM,
		float64(p.SeedStartYear),
		float64(p.SeedYears),
		float64(p.SeedFreqYears),
		float64(p.ShadeStartYear),
		float64(p.ShadeYears),
		float64(p.ShadeFreqYears),
		p.Weights.Wave,
		p.Weights.Heat,
		p.Weights.InConnectivity,
		p.Weights.OutConnectivity,
		p.Weights.HighCover,
		p.Weights.LowCover,
		p.Weights.SeedPriority,
		p.Weights.ShadePriority,
		p.DeployedCoralRiskTolerance,
		p.DepthMin,
		p.DepthOffset,
		spread,
		p.Spread.MinDistFrac,
	}
}
