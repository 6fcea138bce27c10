package imaging

import (
	"runtime"
	"sync"
)

// minParallelRows keeps tiny planes on the calling goroutine.
const minParallelRows = 64

// parallelRows splits [0,height) into horizontal strips for better cache
// locality and runs fn on each strip concurrently. Strips never overlap, so
// fn may write to the rows it owns without locking.
func parallelRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 1 || height < minParallelRows {
		fn(0, height)
		return
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for start := 0; start < height; start += rowsPerWorker {
		end := start + rowsPerWorker
		if end > height {
			end = height
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(start, end)
	}
	wg.Wait()
}
