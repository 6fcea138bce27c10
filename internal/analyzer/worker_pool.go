package analyzer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs metric computations on a fixed set of goroutines shared by
// every analysis.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.activeWorkers.Add(1)
		job()
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
	}
}

// Submit adds a job to the queue. It reports false once the pool is closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.totalJobs.Add(1)
	wp.jobQueue <- job
	return true
}

// Run submits jobs and blocks until every one of them has returned. Each
// call waits only for its own jobs, so concurrent analyses can share the
// pool. Jobs that cannot be queued because the pool is closed run on the
// caller's goroutine. Run must not be called from inside a job.
func (wp *WorkerPool) Run(jobs []func()) {
	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for _, job := range jobs {
		job := job
		wrapped := func() {
			defer wg.Done()
			job()
		}
		if !wp.Submit(wrapped) {
			wrapped()
		}
	}
	wg.Wait()
}

// Wait blocks until every submitted job has completed.
func (wp *WorkerPool) Wait() {
	for wp.completedJobs.Load() < wp.totalJobs.Load() {
		runtime.Gosched()
	}
}

// GetStats returns the current counters.
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}

// Close shuts down the worker pool. It is safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}
