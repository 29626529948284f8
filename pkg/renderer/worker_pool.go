package renderer

import (
	"context"
	"sync"
)

// TaskResult contains the outcome of running one task for a pass
type TaskResult struct {
	TaskID int
	Error  error
}

// taskRequest is a task queued for a pass with its iteration cap
type taskRequest struct {
	task          *Task
	maxIterations int
}

// WorkerPool runs tasks on a fixed number of goroutines. Tasks are taken from
// the queue in submission order, so a pool of one worker runs them strictly
// one after another.
type WorkerPool struct {
	taskQueue   chan taskRequest
	resultQueue chan TaskResult
	numWorkers  int
	wg          sync.WaitGroup
}

// NewWorkerPool creates a worker pool able to hold queueSize pending tasks
func NewWorkerPool(numWorkers, queueSize int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DetectWorkers()
	}

	return &WorkerPool{
		taskQueue:   make(chan taskRequest, queueSize), // Buffer for every task of a pass
		resultQueue: make(chan TaskResult, queueSize),
		numWorkers:  numWorkers,
	}
}

// Start begins all workers
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run(ctx)
	}
}

// Stop waits for the queued tasks and shuts the workers down
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask queues a task to run for at most maxIterations (-1 for no limit)
func (wp *WorkerPool) SubmitTask(task *Task, maxIterations int) {
	wp.taskQueue <- taskRequest{task: task, maxIterations: maxIterations}
}

// GetResult retrieves a completed task result
func (wp *WorkerPool) GetResult() (TaskResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (wp *WorkerPool) run(ctx context.Context) {
	defer wp.wg.Done()

	for req := range wp.taskQueue {
		err := req.task.Run(ctx, req.maxIterations)
		wp.resultQueue <- TaskResult{TaskID: req.task.ID(), Error: err}
	}
}
