package scheduler

import (
	"sync"
	"testing"
)

func TestScheduler_CreateJob(t *testing.T) {
	sched := NewScheduler()

	runCalled := false
	job := sched.CreateJob("redraw", func() {
		runCalled = true
	})

	if job == nil {
		t.Fatal("CreateJob returned nil")
	}

	if job.ID() == 0 {
		t.Error("Job ID should not be 0")
	}

	if job.Name() != "redraw" {
		t.Errorf("Expected name 'redraw', got '%s'", job.Name())
	}

	if runCalled {
		t.Error("Job should not run during creation")
	}

	if sched.JobCount() != 1 {
		t.Errorf("Expected 1 job, got %d", sched.JobCount())
	}
}

func TestScheduler_MarkDirtyAndFlush(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	job := sched.CreateJob("redraw", func() { runs++ })

	sched.MarkDirty(job)
	if sched.Pending() != 1 {
		t.Errorf("Expected 1 pending job, got %d", sched.Pending())
	}

	if n := sched.Flush(); n != 1 {
		t.Errorf("Expected 1 run from Flush, got %d", n)
	}
	if runs != 1 {
		t.Errorf("Expected job to run once, got %d", runs)
	}

	// Flushing with nothing dirty does nothing
	if n := sched.Flush(); n != 0 {
		t.Errorf("Expected 0 runs from empty Flush, got %d", n)
	}

	sched.MarkDirty(job)
	sched.Flush()
	if runs != 2 {
		t.Errorf("Expected job to run twice, got %d", runs)
	}
	if job.Runs() != 2 {
		t.Errorf("Expected Runs() == 2, got %d", job.Runs())
	}
}

func TestScheduler_Coalescing(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	job := sched.CreateJob("redraw", func() { runs++ })

	for i := 0; i < 10; i++ {
		sched.MarkDirty(job)
	}

	if sched.Pending() != 1 {
		t.Errorf("Expected dirty marks to coalesce into 1 queued job, got %d", sched.Pending())
	}

	sched.Flush()
	if runs != 1 {
		t.Errorf("Expected 1 run, got %d", runs)
	}
}

func TestScheduler_WakeFunc(t *testing.T) {
	sched := NewScheduler()

	wakes := 0
	sched.SetWakeFunc(func() { wakes++ })

	a := sched.CreateJob("a", func() {})
	b := sched.CreateJob("b", func() {})

	sched.MarkDirty(a)
	sched.MarkDirty(b)
	if wakes != 1 {
		t.Errorf("Expected one wake for a non-empty queue, got %d", wakes)
	}

	sched.Flush()
	sched.MarkDirty(a)
	if wakes != 2 {
		t.Errorf("Expected a second wake after the queue drained, got %d", wakes)
	}
}

func TestScheduler_SynchronousWake(t *testing.T) {
	sched := NewScheduler()
	sched.SetWakeFunc(func() { sched.Flush() })

	runs := 0
	job := sched.CreateJob("redraw", func() { runs++ })

	sched.MarkDirty(job)
	if runs != 1 {
		t.Errorf("Expected synchronous wake to run the job, got %d runs", runs)
	}
}

func TestScheduler_DirtyDuringFlush(t *testing.T) {
	sched := NewScheduler()

	var second *Job
	secondRuns := 0
	second = sched.CreateJob("second", func() { secondRuns++ })
	first := sched.CreateJob("first", func() { sched.MarkDirty(second) })

	sched.MarkDirty(first)
	if n := sched.Flush(); n != 2 {
		t.Errorf("Expected 2 runs, got %d", n)
	}
	if secondRuns != 1 {
		t.Errorf("Expected job dirtied mid-flush to run in the same flush, got %d", secondRuns)
	}
}

func TestScheduler_RunawayFlushIsBounded(t *testing.T) {
	sched := NewScheduler()

	var job *Job
	job = sched.CreateJob("loop", func() { sched.MarkDirty(job) })

	sched.MarkDirty(job)
	if n := sched.Flush(); n != maxFlushPasses {
		t.Errorf("Expected %d runs, got %d", maxFlushPasses, n)
	}
	if sched.Pending() != 1 {
		t.Errorf("Expected the job to stay queued, got %d pending", sched.Pending())
	}
}

func TestScheduler_WakesAgainAfterGivingUp(t *testing.T) {
	sched := NewScheduler()
	wakes := 0
	sched.SetWakeFunc(func() { wakes++ })

	var job *Job
	job = sched.CreateJob("loop", func() { sched.MarkDirty(job) })

	sched.MarkDirty(job)
	if wakes != 1 {
		t.Fatalf("Expected 1 wake on first MarkDirty, got %d", wakes)
	}

	sched.Flush()
	if wakes != 2 {
		t.Errorf("Expected a wake for the jobs left queued, got %d wakes", wakes)
	}

	sched.Flush()
	if wakes != 3 {
		t.Errorf("Expected every unfinished flush to wake, got %d wakes", wakes)
	}
}

func TestScheduler_SynchronousRewakeIsBounded(t *testing.T) {
	sched := NewScheduler()
	sched.SetWakeFunc(func() { sched.Flush() })

	var job *Job
	job = sched.CreateJob("loop", func() { sched.MarkDirty(job) })

	// The first flush comes from the wake in MarkDirty and re-wakes once
	sched.MarkDirty(job)
	if got := job.Runs(); got != 2*maxFlushPasses {
		t.Errorf("Expected %d runs, got %d", 2*maxFlushPasses, got)
	}
	if sched.Pending() != 1 {
		t.Errorf("Expected the job to stay queued, got %d pending", sched.Pending())
	}
}

func TestScheduler_ErrorHandling(t *testing.T) {
	sched := NewScheduler()

	errorHandled := false
	shouldContinue := true

	sched.SetDefaultErrorHandler(func(j *Job, err interface{}) bool {
		errorHandled = true
		return shouldContinue
	})

	panicRun := func() {
		panic("test panic")
	}

	job := sched.CreateJob("panics", panicRun)
	sched.MarkDirty(job)
	sched.Flush()

	if !errorHandled {
		t.Error("Error handler was not called")
	}

	if sched.GetJob(job.ID()) == nil {
		t.Error("Job was removed despite error handler returning true")
	}

	shouldContinue = false
	errorHandled = false

	job2 := sched.CreateJob("panics-again", panicRun)
	sched.MarkDirty(job2)
	sched.Flush()

	if !errorHandled {
		t.Error("Error handler was not called for second job")
	}

	if sched.GetJob(job2.ID()) != nil {
		t.Error("Job was not removed when error handler returned false")
	}
}

func TestScheduler_PanicWithoutHandlerKeepsJob(t *testing.T) {
	sched := NewScheduler()

	job := sched.CreateJob("panics", func() { panic("boom") })
	sched.MarkDirty(job)
	sched.Flush()

	if sched.GetJob(job.ID()) == nil {
		t.Error("Job without error handler should stay registered")
	}
	if job.Dirty() {
		t.Error("Job should not be dirty after its run")
	}
}

func TestScheduler_RemoveJob(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	job1 := sched.CreateJob("one", func() { runs++ })
	job2 := sched.CreateJob("two", func() {})

	if sched.JobCount() != 2 {
		t.Errorf("Expected 2 jobs, got %d", sched.JobCount())
	}

	sched.MarkDirty(job1)
	sched.RemoveJob(job1)
	sched.Flush()

	if runs != 0 {
		t.Error("Removed job should not run")
	}

	if sched.JobCount() != 1 {
		t.Errorf("Expected 1 job after removal, got %d", sched.JobCount())
	}

	if sched.GetJob(job2.ID()) == nil {
		t.Error("Job2 should still exist")
	}

	// Marking a removed job is ignored
	sched.MarkDirty(job1)
	if sched.Pending() != 0 {
		t.Errorf("Expected nothing pending, got %d", sched.Pending())
	}
}

func TestScheduler_ConcurrentMarkDirty(t *testing.T) {
	sched := NewScheduler()

	runs := 0
	job := sched.CreateJob("redraw", func() { runs++ })

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.MarkDirty(job)
		}()
	}
	wg.Wait()

	sched.Flush()
	if runs != 1 {
		t.Errorf("Expected 100 concurrent marks to produce 1 run, got %d", runs)
	}
}

func TestScheduler_NilJob(t *testing.T) {
	sched := NewScheduler()

	// Should not panic
	sched.MarkDirty(nil)
	sched.RemoveJob(nil)
}

func BenchmarkScheduler_MarkDirtyFlush(b *testing.B) {
	sched := NewScheduler()
	job := sched.CreateJob("bench", func() {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sched.MarkDirty(job)
		sched.Flush()
	}
}
