package ecosystem

import "github.com/reeflab/coralmcda/internal/domain"

// AdjustCover implements spec.md §4.J: for every location whose total cover
// across bins exceeds carrying capacity k, rescale every bin at that
// location so the total exactly equals k. cover is mutated in place.
// Invariant after: sum_s cover[s,l] <= k_l + epsilon for every l.
func AdjustCover(cover []float64, dom *domain.Domain) {
	n := dom.N()
	colSum := make([]float64, n)
	for s := 0; s < domain.NBins; s++ {
		for l := 0; l < n; l++ {
			colSum[l] += cover[dom.CoverIndex(s, l)]
		}
	}
	for l := 0; l < n; l++ {
		k := dom.Locations[l].K
		if colSum[l] <= k || colSum[l] <= 0 {
			continue
		}
		scale := k / colSum[l]
		for s := 0; s < domain.NBins; s++ {
			idx := dom.CoverIndex(s, l)
			if cover[idx] < 0 {
				cover[idx] = 0
				continue
			}
			cover[idx] *= scale
		}
	}
}
