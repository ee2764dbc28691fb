package scenario

// DecisionYears implements spec.md §4.E: given a start year, a duration in
// years, a frequency, and the simulation horizon, produce a boolean vector
// of length horizon (1-based years, index 0 unused conceptually but present
// for direct t-indexing) marking which years are decision years.
//
// Rules: if freq > 0, mark years startYear : freq : min(startYear+years-1,
// horizon). If freq == 0, mark exactly max(startYear, 2). Pure function —
// no side effects, no randomness.
func DecisionYears(startYear, years, freq, horizon int) []bool {
	out := make([]bool, horizon+1) // 1-indexed by year
	if horizon <= 0 {
		return out
	}
	if freq > 0 {
		last := startYear + years - 1
		if last > horizon {
			last = horizon
		}
		for y := startYear; y <= last; y += freq {
			if y >= 1 && y <= horizon {
				out[y] = true
			}
		}
		return out
	}
	y := startYear
	if y < 2 {
		y = 2
	}
	if y <= horizon {
		out[y] = true
	}
	return out
}

// SeedDecisionYears returns the decision-year vector for seeding, using the
// scenario's own timing fields.
func (p Params) SeedDecisionYears(horizon int) []bool {
	return DecisionYears(p.SeedStartYear, p.SeedYears, p.SeedFreqYears, horizon)
}

// ShadeDecisionYears returns the decision-year vector for shading/fogging.
func (p Params) ShadeDecisionYears(horizon int) []bool {
	return DecisionYears(p.ShadeStartYear, p.ShadeYears, p.ShadeFreqYears, horizon)
}
