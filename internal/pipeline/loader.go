// Package pipeline parses session files with a bounded worker pool.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/ccpace/internal/source"
)

// LoadResult holds one ActivityResult per input file, in input order.
type LoadResult struct {
	Results     []source.ActivityResult
	ParsedFiles int
	ParseErrors int
	FileErrors  int
}

// ProgressFunc is called as files finish. current counts files processed so
// far; total is the number of input files.
type ProgressFunc func(current, total int)

// ParseActivities parses files in parallel against [start, end]. Files not
// yet started when ctx is cancelled get ctx's error.
func ParseActivities(ctx context.Context, files []source.DiscoveredFile, start, end time.Time, progressFn ProgressFunc) LoadResult {
	result := LoadResult{Results: make([]source.ActivityResult, len(files))}
	if len(files) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
	)
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if err := ctx.Err(); err != nil {
					result.Results[idx] = source.ActivityResult{Err: err}
				} else {
					result.Results[idx] = source.ParseActivity(files[idx], start, end)
				}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}
	wg.Wait()

	for _, r := range result.Results {
		if r.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += r.ParseErrors
	}
	return result
}
