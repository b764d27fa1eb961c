package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/recera/treecanvas/pkg/scheduler"
)

// Scheduler interface for reactive system
type Scheduler interface {
	MarkDirty(job *scheduler.Job)
}

// debugLog is set by platform-specific code
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// currentJob is dynamically scoped to track dependencies
var currentJob atomic.Pointer[scheduler.Job]

// SetCurrentJob sets the job that subsequent Get calls subscribe.
// Effects set it around their body; most callers never need it.
func SetCurrentJob(job *scheduler.Job) {
	currentJob.Store(job)
}

// GetCurrentJob returns the current job
func GetCurrentJob() *scheduler.Job {
	return currentJob.Load()
}

// Signal is the interface for reactive values
type Signal[T any] interface {
	Get() T
	Peek() T
	Subscribe(job *scheduler.Job)
	Unsubscribe(job *scheduler.Job)
	OnChange(fn func()) (cancel func())
}

// Notifier is anything that can report changes without exposing its value
type Notifier interface {
	OnChange(fn func()) (cancel func())
}

// watcher is a registered observer callback
type watcher struct {
	fn func()
}

// observers holds the jobs and callbacks interested in one value
type observers struct {
	mu       sync.RWMutex
	jobs     map[uint32]*scheduler.Job
	watchers map[*watcher]struct{}
}

func newObservers() observers {
	return observers{
		jobs:     make(map[uint32]*scheduler.Job),
		watchers: make(map[*watcher]struct{}),
	}
}

func (o *observers) subscribe(job *scheduler.Job) {
	if job == nil {
		return
	}
	o.mu.Lock()
	o.jobs[job.ID()] = job
	o.mu.Unlock()
}

func (o *observers) unsubscribe(job *scheduler.Job) {
	if job == nil {
		return
	}
	o.mu.Lock()
	delete(o.jobs, job.ID())
	o.mu.Unlock()
}

func (o *observers) watch(fn func()) (cancel func()) {
	return o.add(&watcher{fn: fn})
}

func (o *observers) add(w *watcher) (cancel func()) {
	o.mu.Lock()
	o.watchers[w] = struct{}{}
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.watchers, w)
		o.mu.Unlock()
	}
}

// notify marks dependent jobs dirty and runs watchers, both deferred to
// the end of the enclosing batch if there is one
func (o *observers) notify(sched Scheduler) {
	o.mu.RLock()
	jobs := make([]*scheduler.Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		jobs = append(jobs, job)
	}
	ws := make([]*watcher, 0, len(o.watchers))
	for w := range o.watchers {
		ws = append(ws, w)
	}
	o.mu.RUnlock()

	if debugLog != nil {
		debugLog("[State] Notifying", len(jobs), "jobs and", len(ws), "watchers")
	}

	// Run outside the lock so observers may subscribe or cancel
	for _, w := range ws {
		runOrBatch(w)
	}
	for _, job := range jobs {
		markDirtyOrBatch(sched, job)
	}
}

// observed is implemented by State and Computed
type observed interface {
	observerSet() *observers
}

// OnAnyChange registers fn on every source. A batch that changes several
// sources runs fn once at commit.
func OnAnyChange(fn func(), sources ...Notifier) (cancel func()) {
	w := &watcher{fn: fn}
	cancels := make([]func(), 0, len(sources))
	for _, src := range sources {
		if o, ok := src.(observed); ok {
			cancels = append(cancels, o.observerSet().add(w))
		} else {
			cancels = append(cancels, src.OnChange(fn))
		}
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// State represents a reactive state value
type State[T any] struct {
	value T
	mu    sync.RWMutex

	obs       observers
	scheduler Scheduler
}

// NewState creates a new reactive state
func NewState[T any](initial T, sched Scheduler) *State[T] {
	return &State[T]{
		value:     initial,
		obs:       newObservers(),
		scheduler: sched,
	}
}

// Get returns the current value and tracks dependencies
func (s *State[T]) Get() T {
	if job := GetCurrentJob(); job != nil {
		s.Subscribe(job)
	}
	return s.Peek()
}

// Peek returns the current value without subscribing the current job
func (s *State[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies observers
func (s *State[T]) Set(value T) {
	if debugLog != nil {
		debugLog("[State] Set called with value:", value)
	}

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.obs.notify(s.scheduler)
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()

	s.obs.notify(s.scheduler)
}

// Subscribe adds a job as a dependency
func (s *State[T]) Subscribe(job *scheduler.Job) {
	s.obs.subscribe(job)
}

// Unsubscribe removes a job as a dependency
func (s *State[T]) Unsubscribe(job *scheduler.Job) {
	s.obs.unsubscribe(job)
}

// OnChange registers fn to run after every Set/Update
func (s *State[T]) OnChange(fn func()) (cancel func()) {
	return s.obs.watch(fn)
}

func (s *State[T]) observerSet() *observers { return &s.obs }

// Watch registers fn to receive the value after every Set/Update
func (s *State[T]) Watch(fn func(T)) (cancel func()) {
	return s.obs.watch(func() { fn(s.Peek()) })
}

// Computed represents a memoized computed value
type Computed[T any] struct {
	compute func() T
	value   T
	valid   bool
	mu      sync.Mutex

	obs       observers
	sources   []func()
	scheduler Scheduler
}

// NewComputed creates a new computed value
func NewComputed[T any](compute func() T, sched Scheduler) *Computed[T] {
	return &Computed[T]{
		compute:   compute,
		obs:       newObservers(),
		scheduler: sched,
	}
}

// DependOn invalidates the computed value whenever any source changes
func (c *Computed[T]) DependOn(sources ...Notifier) *Computed[T] {
	for _, src := range sources {
		c.sources = append(c.sources, src.OnChange(c.Invalidate))
	}
	return c
}

// Get returns the computed value, recalculating if necessary
func (c *Computed[T]) Get() T {
	if job := GetCurrentJob(); job != nil {
		c.Subscribe(job)
	}
	return c.Peek()
}

// Peek returns the computed value without subscribing the current job
func (c *Computed[T]) Peek() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid {
		c.value = c.compute()
		c.valid = true
	}
	return c.value
}

// Invalidate marks the computed value as needing recalculation
func (c *Computed[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()

	c.obs.notify(c.scheduler)
}

// Dispose detaches the computed value from its sources
func (c *Computed[T]) Dispose() {
	for _, cancel := range c.sources {
		cancel()
	}
	c.sources = nil
}

// Subscribe adds a job as a dependency
func (c *Computed[T]) Subscribe(job *scheduler.Job) {
	c.obs.subscribe(job)
}

// Unsubscribe removes a job as a dependency
func (c *Computed[T]) Unsubscribe(job *scheduler.Job) {
	c.obs.unsubscribe(job)
}

// OnChange registers fn to run after every invalidation
func (c *Computed[T]) OnChange(fn func()) (cancel func()) {
	return c.obs.watch(fn)
}

func (c *Computed[T]) observerSet() *observers { return &c.obs }

// batchContext holds the current batch state
var batchContext atomic.Pointer[Batch]

type batchedJob struct {
	scheduler Scheduler
	job       *scheduler.Job
}

// Batch allows multiple state updates without triggering redraws until
// the batch completes
type Batch struct {
	scheduler Scheduler
	jobs      map[uint32]batchedJob
	order     []uint32
	watchers  []*watcher
	seen      map[*watcher]struct{}
	mu        sync.Mutex
	active    bool
}

// NewBatch creates a new batch context
func NewBatch(sched Scheduler) *Batch {
	return &Batch{
		scheduler: sched,
		jobs:      make(map[uint32]batchedJob),
		seen:      make(map[*watcher]struct{}),
		active:    true,
	}
}

// Add adds a job to the batch. A nil scheduler falls back to the batch's own.
func (b *Batch) Add(sched Scheduler, job *scheduler.Job) {
	if !b.active || job == nil {
		return
	}
	if sched == nil {
		sched = b.scheduler
	}

	b.mu.Lock()
	if _, ok := b.jobs[job.ID()]; !ok {
		b.order = append(b.order, job.ID())
	}
	b.jobs[job.ID()] = batchedJob{scheduler: sched, job: job}
	b.mu.Unlock()
}

func (b *Batch) addWatcher(w *watcher) {
	b.mu.Lock()
	if _, ok := b.seen[w]; !ok {
		b.seen[w] = struct{}{}
		b.watchers = append(b.watchers, w)
	}
	b.mu.Unlock()
}

// Commit runs the collected watchers once each, then marks the collected
// jobs dirty once each
func (b *Batch) Commit() {
	b.mu.Lock()
	b.active = false
	watchers := b.watchers
	jobs := make([]batchedJob, 0, len(b.order))
	for _, id := range b.order {
		jobs = append(jobs, b.jobs[id])
	}
	b.jobs = nil
	b.watchers = nil
	b.mu.Unlock()

	for _, w := range watchers {
		w.fn()
	}
	for _, bj := range jobs {
		if bj.scheduler != nil {
			bj.scheduler.MarkDirty(bj.job)
		}
	}
}

// RunBatch executes a function within a batch context
func RunBatch(sched Scheduler, fn func()) {
	batch := NewBatch(sched)
	oldBatch := batchContext.Swap(batch)

	defer func() {
		batchContext.Store(oldBatch)
		batch.Commit()
	}()

	fn()
}

// markDirtyOrBatch marks a job dirty or adds it to the current batch
func markDirtyOrBatch(sched Scheduler, job *scheduler.Job) {
	if batch := batchContext.Load(); batch != nil && batch.active {
		batch.Add(sched, job)
	} else if sched != nil {
		sched.MarkDirty(job)
	} else if debugLog != nil {
		debugLog("[State] No scheduler available for job", job.ID())
	}
}

// runOrBatch runs a watcher now or at the end of the current batch
func runOrBatch(w *watcher) {
	if batch := batchContext.Load(); batch != nil && batch.active {
		batch.addWatcher(w)
		return
	}
	w.fn()
}
