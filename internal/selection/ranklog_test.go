package selection

import "testing"

func TestRankLogRecordOnlyTouchesConsideredSites(t *testing.T) {
	log := NewRankLog(3, 5)
	considered := []int{1, 3}
	ranks := map[int]int{1: 2, 3: 1}
	log.Record(0, SeedIntent, considered, ranks)

	for loc := 0; loc < 5; loc++ {
		got := log.SeedRankAt(0, loc)
		switch loc {
		case 1:
			if got != 2 {
				t.Errorf("location 1: got rank %d, want 2", got)
			}
		case 3:
			if got != 1 {
				t.Errorf("location 3: got rank %d, want 1", got)
			}
		default:
			if got != 0 {
				t.Errorf("location %d: got rank %d, want 0 (never considered)", loc, got)
			}
		}
	}
}

func TestRankLogSeedAndShadeColumnsAreIndependent(t *testing.T) {
	log := NewRankLog(1, 3)
	log.Record(0, SeedIntent, []int{0}, map[int]int{0: 1})
	log.Record(0, ShadeIntent, []int{2}, map[int]int{2: 1})

	if log.SeedRankAt(0, 0) != 1 {
		t.Errorf("seed rank at location 0: got %d, want 1", log.SeedRankAt(0, 0))
	}
	if log.SeedRankAt(0, 2) != 0 {
		t.Errorf("seed rank at location 2 should be untouched, got %d", log.SeedRankAt(0, 2))
	}
	if log.ShadeRankAt(0, 2) != 1 {
		t.Errorf("shade rank at location 2: got %d, want 1", log.ShadeRankAt(0, 2))
	}
	if log.ShadeRankAt(0, 0) != 0 {
		t.Errorf("shade rank at location 0 should be untouched, got %d", log.ShadeRankAt(0, 0))
	}
}

func TestRankLogMeanIgnoresUnconsideredYears(t *testing.T) {
	log := NewRankLog(2, 2)
	log.Record(0, SeedIntent, []int{0}, map[int]int{0: 1})
	log.Record(1, SeedIntent, []int{0}, map[int]int{0: 3})

	mean := log.MeanSeedRank()
	if mean[0] != 2 {
		t.Errorf("location 0 mean seed rank: got %v, want 2 (average of 1 and 3)", mean[0])
	}
	if mean[1] != 0 {
		t.Errorf("location 1 was never considered, mean should be 0, got %v", mean[1])
	}
}
