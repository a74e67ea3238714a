package shallow

import "testing"

func TestAssignRowMasksCoversEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8, 50} {
		rows := interiorRows(20)
		masks := assignRowMasks(workers, rows)
		seen := make(map[int]int)
		for _, m := range masks {
			for _, r := range m.rows {
				for i := r.start; i < r.end; i++ {
					seen[i]++
				}
			}
		}
		for i := 1; i < 19; i++ {
			if seen[i] != 1 {
				t.Errorf("workers=%d: row %d assigned %d times", workers, i, seen[i])
			}
		}
		if len(seen) != 18 {
			t.Errorf("workers=%d: %d rows assigned, want 18", workers, len(seen))
		}
		if workers > 18 && len(masks) != 18 {
			t.Errorf("workers=%d: %d masks, want 18", workers, len(masks))
		}
	}
}

func TestRunMasksVisitsAllRows(t *testing.T) {
	masks := assignRowMasks(4, interiorRows(11))
	hits := make([]int, 11)
	runMasks(masks, func(i int) { hits[i]++ })
	for i, h := range hits {
		want := 1
		if i == 0 || i == 10 {
			want = 0
		}
		if h != want {
			t.Errorf("row %d visited %d times, want %d", i, h, want)
		}
	}
}
