package software

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
)

/** @brief A unit of work for the job system. */
type JobTask struct {
	Name string
	// Run executes on a worker goroutine.
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

/** @brief A fixed pool of workers draining a job queue. Serves async compute and readback. */
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
	pending    sync.WaitGroup
	mutex      sync.RWMutex
	closed     bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	defer js.pending.Done()
	if err := job.Run(); err != nil {
		core.LogError("job %s failed: %s", job.Name, err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Shuts the job system down after draining queued work.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if !js.closed {
		js.closed = true
		close(js.jobQueue)
	}
	js.mutex.Unlock()
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * Fails with InvalidOperation once the job system has been shut down.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return core.InvalidOperation("job system has been shut down, cannot run %s", jt.Name)
	}
	js.pending.Add(1)
	js.jobQueue <- jt
	return nil
}

// Wait blocks until every submitted job has finished.
func (js *JobSystem) Wait() {
	js.pending.Wait()
}
