package renderpipeline

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// WorkQueue fans per-frame loops out over a reusable worker pool. Each
// parallel loop splits its input into one chunk per context; the chunk's
// context index addresses per-thread intermediate buffers so workers never
// contend on shared state.
type WorkQueue struct {
	pool        worker.DynamicWorkerPool
	numContexts int
	taskID      int
}

// NewWorkQueue creates a work queue sized to the machine, leaving one CPU for
// the main thread.
//
// Returns:
//   - *WorkQueue: the newly created work queue
func NewWorkQueue() *WorkQueue {
	numContexts := max(runtime.NumCPU()-1, 1)
	return &WorkQueue{
		pool:        worker.NewDynamicWorkerPool(numContexts, 256, 1*time.Second),
		numContexts: numContexts,
	}
}

// NumContexts returns how many parallel contexts loops are split into.
// Per-context buffers must be sized to this.
func (q *WorkQueue) NumContexts() int {
	return q.numContexts
}

// forEachParallel runs fn for every index in [0, count) across the pool.
// Indices are split into contiguous chunks, one per context, and fn receives
// the chunk's context index. Workers are reused across frames (no goroutine
// spawn overhead). A WaitGroup provides per-frame barrier sync since
// pool.Wait() blocks until workers idle-exit which is unsuitable for
// frame-rate workloads.
func forEachParallel(q *WorkQueue, count int, fn func(contextIndex, index int)) {
	if count == 0 {
		return
	}
	numChunks := min(q.numContexts, count)
	chunkSize := (count + numChunks - 1) / numChunks

	var wg sync.WaitGroup
	for chunk := 0; chunk < numChunks; chunk++ {
		begin := chunk * chunkSize
		end := min(begin+chunkSize, count)
		if begin >= end {
			break
		}

		wg.Add(1)
		contextIndex := chunk
		id := q.taskID
		q.taskID++
		q.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := begin; i < end; i++ {
					fn(contextIndex, i)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
