package mcda

import "gonum.org/v1/gonum/mat"

// ApplySpatialSpread implements spec.md §4.C: given the ranker's full
// ordered result, enforce a minimum pairwise distance among the top n_int
// selections, drawing replacements from the next topN ranked candidates
// when two preferred sites are too close together.
//
// Fails with none (spec.md): the worst case returns a best-effort result
// with degraded spread and degraded=true, rather than an error.
func ApplySpatialSpread(ranked []RankedSite, distances *mat.Dense, nInt, topN int, minDist float64) (sites []int, degraded bool) {
	if nInt <= 0 {
		return nil, false
	}
	pref := topIDs(ranked, nInt)
	if len(pref) < nInt {
		// Not enough candidates to fill n_int; pad is the caller's concern
		// (the site selector zero-fills). Spread enforcement is moot.
		return pref, len(pref) < nInt
	}

	alt := remainingIDs(ranked, nInt, topN)
	altIdx := 0

	for {
		conflictRows := conflictSet(pref, distances, minDist)
		if len(conflictRows) == 0 {
			return pref, false
		}
		if altIdx >= len(alt) {
			// Alt pool exhausted — return the current selection as it
			// stands, conflicts included. It may already hold alternates
			// in place of replaced originals; originals are not restored.
			// Its length still equals n_int.
			return pref, true
		}
		// Replace the lowest-ranked (last in pref order) offending entry.
		worst := conflictRows[len(conflictRows)-1]
		pref[worst] = alt[altIdx]
		altIdx++
	}
}

// topIDs returns the location ids of the top n ranked sites (rank 1..n).
func topIDs(ranked []RankedSite, n int) []int {
	if n > len(ranked) {
		n = len(ranked)
	}
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = ranked[i].LocationID
	}
	return ids
}

// remainingIDs returns location ids ranked (nInt+1)..(nInt+topN), the
// candidate pool to draw replacements from.
func remainingIDs(ranked []RankedSite, nInt, topN int) []int {
	start := nInt
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + topN
	if end > len(ranked) {
		end = len(ranked)
	}
	ids := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		ids = append(ids, ranked[i].LocationID)
	}
	return ids
}

// conflictSet returns, among pref's indices, those whose pairwise distance
// to some other pref member falls below minDist. Ordered by pref index
// ascending (which is rank-ascending, i.e. best-ranked first) so "the
// lowest-ranked offending entry" is always the last element.
func conflictSet(pref []int, distances *mat.Dense, minDist float64) []int {
	offending := map[int]bool{}
	for i := 0; i < len(pref); i++ {
		for j := i + 1; j < len(pref); j++ {
			if distances.At(pref[i]-1, pref[j]-1) < minDist {
				offending[i] = true
				offending[j] = true
			}
		}
	}
	rows := make([]int, 0, len(offending))
	for i := 0; i < len(pref); i++ {
		if offending[i] {
			rows = append(rows, i)
		}
	}
	return rows
}
