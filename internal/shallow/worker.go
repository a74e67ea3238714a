package shallow

import "sync"

// rowMask is a contiguous run of interior rows [start, end).
type rowMask struct {
	start, end int
}

// workerMask collects the row masks assigned to one goroutine.
type workerMask struct {
	rows []rowMask
}

// interiorRows splits rows 1..nx-2 into single-row masks.
func interiorRows(nx int) []rowMask {
	rows := make([]rowMask, 0, nx-2)
	for i := 1; i < nx-1; i++ {
		rows = append(rows, rowMask{start: i, end: i + 1})
	}
	return rows
}

// assignRowMasks distributes row masks across workers in contiguous blocks so
// each goroutine walks adjacent memory.
func assignRowMasks(workerCount int, rows []rowMask) []workerMask {
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(rows) {
		workerCount = len(rows)
	}
	masks := make([]workerMask, workerCount)
	if workerCount == 0 {
		return masks
	}
	per := (len(rows) + workerCount - 1) / workerCount
	for idx, row := range rows {
		w := idx / per
		masks[w].rows = append(masks[w].rows, row)
	}
	return masks
}

// runMasks calls fn for every row in every mask, one goroutine per mask, and
// returns once all of them are done.
func runMasks(masks []workerMask, fn func(i int)) {
	var wg sync.WaitGroup
	for _, mask := range masks {
		if len(mask.rows) == 0 {
			continue
		}
		wg.Add(1)
		go func(m workerMask) {
			defer wg.Done()
			for _, r := range m.rows {
				for i := r.start; i < r.end; i++ {
					fn(i)
				}
			}
		}(mask)
	}
	wg.Wait()
}
