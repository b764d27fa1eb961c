package scheduler

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// maxFlushPasses bounds how many times Flush re-drains the queue when jobs
// dirty each other while running.
const maxFlushPasses = 16

// RenderFunc is the body of a job. For the viewer it is a full redraw.
type RenderFunc func()

// ErrorHandler handles panics during a job run
// Returns true to keep the job registered, false to remove it
type ErrorHandler func(job *Job, err interface{}) bool

// Job is a unit of deferred work, usually a redraw, that runs at most once
// per flush no matter how many times it was marked dirty.
type Job struct {
	id   uint32
	name string

	render RenderFunc

	dirty   atomic.Bool
	removed atomic.Bool
	runs    atomic.Uint64

	onError ErrorHandler
}

// debugLog is set by platform-specific code
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Scheduler queues dirty jobs and runs them on Flush
type Scheduler struct {
	mu       sync.Mutex
	jobs     map[uint32]*Job
	nextID   uint32
	queue    []*Job
	flushing bool
	rewaking bool

	// Callbacks
	wake         func()
	defaultError ErrorHandler
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs:   make(map[uint32]*Job),
		nextID: 1,
		queue:  make([]*Job, 0, 16),
	}
}

// SetWakeFunc sets the function called when the queue goes from empty to
// non-empty outside of a flush. The browser uses it to request an
// animation frame; synchronous hosts pass a function that calls Flush.
func (s *Scheduler) SetWakeFunc(wake func()) {
	s.mu.Lock()
	s.wake = wake
	s.mu.Unlock()
}

// SetDefaultErrorHandler sets the default error handler for new jobs
func (s *Scheduler) SetDefaultErrorHandler(handler ErrorHandler) {
	s.defaultError = handler
}

// CreateJob registers a new job. It does not run until marked dirty.
func (s *Scheduler) CreateJob(name string, render RenderFunc) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	job := &Job{
		id:      id,
		name:    name,
		render:  render,
		onError: s.defaultError,
	}
	s.jobs[id] = job
	return job
}

// RemoveJob unregisters a job; pending runs are dropped
func (s *Scheduler) RemoveJob(job *Job) {
	if job == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job.removed.Store(true)
	delete(s.jobs, job.id)
}

// MarkDirty queues a job for the next flush
func (s *Scheduler) MarkDirty(job *Job) {
	if job == nil || job.removed.Load() {
		return
	}

	if !job.dirty.CompareAndSwap(false, true) {
		if debugLog != nil {
			debugLog("[Scheduler] Job", job.ID(), "already dirty")
		}
		return
	}

	s.mu.Lock()
	wasEmpty := len(s.queue) == 0
	s.queue = append(s.queue, job)
	wake := s.wake
	flushing := s.flushing
	s.mu.Unlock()

	if debugLog != nil {
		debugLog("[Scheduler] Job", job.ID(), job.name, "marked dirty")
	}

	if wasEmpty && !flushing && wake != nil {
		wake()
	}
}

// Flush runs every dirty job. Jobs dirtied while the flush is running are
// picked up by a later pass of the same flush. When jobs are still queued
// after the last pass the wake function is called again, so a host that
// flushes on the next frame keeps going. It returns the number of job runs.
func (s *Scheduler) Flush() int {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return 0
	}
	s.flushing = true
	s.mu.Unlock()

	ran := s.drain()

	s.mu.Lock()
	s.flushing = false
	pending := len(s.queue)
	wake := s.wake
	// A synchronous wake flushes from inside this call; only re-wake once
	// per outermost flush so that cannot recurse without bound.
	rewake := pending > 0 && wake != nil && !s.rewaking
	if rewake {
		s.rewaking = true
	}
	s.mu.Unlock()

	if pending > 0 && debugLog != nil {
		debugLog("[Scheduler] Flush gave up with", pending, "jobs still dirty")
	}
	if rewake {
		defer func() {
			s.mu.Lock()
			s.rewaking = false
			s.mu.Unlock()
		}()
		wake()
	}
	return ran
}

// drain runs up to maxFlushPasses passes over the queue
func (s *Scheduler) drain() int {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.flushing = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	ran := 0
	for pass := 0; pass < maxFlushPasses; pass++ {
		s.mu.Lock()
		batch := s.queue
		s.queue = make([]*Job, 0, cap(batch))
		s.mu.Unlock()

		if len(batch) == 0 {
			break
		}

		if debugLog != nil {
			debugLog("[Scheduler] Processing batch of", len(batch), "jobs")
		}
		for _, job := range batch {
			if s.runJob(job) {
				ran++
			}
		}
	}
	return ran
}

// runJob runs a single job with panic recovery
func (s *Scheduler) runJob(job *Job) bool {
	// Check if still dirty (might have been removed meanwhile)
	if !job.dirty.CompareAndSwap(true, false) || job.removed.Load() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			s.handleJobError(job, r)
		}
	}()

	job.runs.Add(1)
	if job.render != nil {
		job.render()
	}
	return true
}

// handleJobError handles a panic during a job run
func (s *Scheduler) handleJobError(job *Job, err interface{}) {
	errorMsg := fmt.Sprintf("Job %d (%s) panic: %v\n%s", job.id, job.name, err, debug.Stack())

	if job.onError == nil {
		if debugLog != nil {
			debugLog("[Scheduler]", errorMsg)
		}
		return
	}

	if !job.onError(job, errorMsg) {
		s.RemoveJob(job)
	}
}

// Pending returns the number of queued jobs
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// GetJob returns a job by ID
func (s *Scheduler) GetJob(id uint32) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// JobCount returns the number of registered jobs
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// ID returns the job's unique ID
func (j *Job) ID() uint32 {
	return j.id
}

// Name returns the name the job was created with
func (j *Job) Name() string {
	return j.name
}

// Runs returns how many times the job has run
func (j *Job) Runs() uint64 {
	return j.runs.Load()
}

// Dirty reports whether the job is queued
func (j *Job) Dirty() bool {
	return j.dirty.Load()
}

// SetErrorHandler sets a custom error handler for this job
func (j *Job) SetErrorHandler(handler ErrorHandler) {
	j.onError = handler
}
