// Package selection implements the site selector (spec.md §4.D): depth
// filtering, the rotation rule, per-intent criteria-row construction, and
// dispatch into internal/mcda's decision-matrix builder, rankers, and
// spatial-spread filter. Each call returns its chosen sites and emits
// slog side-effect logging plus a ranking-log record for later analysis.
package selection

import "github.com/reeflab/coralmcda/internal/scenario"

// Intent carries the two things that differ between seeding and shading
// site selection while the rest of the pipeline (A→B→C) is shared, per
// spec.md §9's "intent-parameterized selection" design note.
type Intent struct {
	Name      string
	LogColumn int // 0 = seed column, 1 = shade column, per RankLog
}

var (
	SeedIntent  = Intent{Name: "seed", LogColumn: 0}
	ShadeIntent = Intent{Name: "shade", LogColumn: 1}
)

// Weights returns the criterion-name → weight map for this intent, drawn
// from the scenario's shared weight vector. Each intent only ever wires its
// own priority criterion (seed_priority for SeedIntent, shade_priority for
// ShadeIntent); the other intent's priority weight is never carried across,
// which is what keeps a criterion with zero relevance to this intent from
// influencing its ranking (spec.md §4.A's projection guarantee).
func (in Intent) Weights(w scenario.Weights) map[string]float64 {
	out := map[string]float64{
		"in_connectivity":  w.InConnectivity,
		"out_connectivity": w.OutConnectivity,
		"heat_prob":        w.Heat,
		"wave_prob":        w.Wave,
		"low_cover":        w.LowCover,
		"high_cover":       w.HighCover,
	}
	switch in {
	case SeedIntent:
		out["seed_priority"] = w.SeedPriority
	case ShadeIntent:
		out["shade_priority"] = w.ShadePriority
	}
	return out
}
