package reactive

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/recera/treecanvas/pkg/scheduler"
)

func TestState_GetSet(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState(42, sched)

	if got := state.Get(); got != 42 {
		t.Errorf("Expected initial value 42, got %d", got)
	}

	state.Set(100)
	if got := state.Get(); got != 100 {
		t.Errorf("Expected value 100 after Set, got %d", got)
	}
}

func TestState_DependencyTracking(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState("hello", sched)

	renders := 0
	var seen string
	Effect(sched, "text", func() {
		renders++
		seen = state.Get()
	})

	sched.Flush()
	if renders != 1 {
		t.Errorf("Expected 1 initial render, got %d", renders)
	}

	state.Set("world")
	sched.Flush()

	if renders != 2 {
		t.Errorf("Expected 2 renders after state update, got %d", renders)
	}
	if seen != "world" {
		t.Errorf("Expected effect to see 'world', got '%s'", seen)
	}
}

func TestState_PeekDoesNotTrack(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState(1, sched)

	renders := 0
	Effect(sched, "peek", func() {
		renders++
		_ = state.Peek()
	})
	sched.Flush()

	state.Set(2)
	sched.Flush()

	if renders != 1 {
		t.Errorf("Expected Peek not to subscribe the effect, got %d renders", renders)
	}
}

func TestState_Update(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState(10, sched)

	state.Update(func(v int) int {
		return v * 2
	})

	if got := state.Get(); got != 20 {
		t.Errorf("Expected value 20 after Update, got %d", got)
	}
}

func TestState_Watch(t *testing.T) {
	state := NewState(0, nil)

	var got []int
	cancel := state.Watch(func(v int) {
		got = append(got, v)
	})

	state.Set(1)
	state.Update(func(v int) int { return v + 1 })
	cancel()
	state.Set(99)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected watcher to see [1 2], got %v", got)
	}
}

func TestState_ConcurrentAccess(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState(0, sched)

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			state.Set(val)
		}(i)
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = state.Get()
		}()
	}

	wg.Wait()
	t.Log("Concurrent access completed without panic")
}

func TestComputed_Basic(t *testing.T) {
	sched := scheduler.NewScheduler()

	count := NewState(5, sched)
	double := NewComputed(func() int {
		return count.Peek() * 2
	}, sched).DependOn(count)

	if got := double.Get(); got != 10 {
		t.Errorf("Expected computed value 10, got %d", got)
	}

	count.Set(7)

	if got := double.Get(); got != 14 {
		t.Errorf("Expected computed value 14 after update, got %d", got)
	}
}

func TestComputed_Memoization(t *testing.T) {
	sched := scheduler.NewScheduler()

	var computeCount atomic.Int32
	expensive := NewComputed(func() int {
		computeCount.Add(1)
		return 42
	}, sched)

	_ = expensive.Get()
	if computeCount.Load() != 1 {
		t.Errorf("Expected 1 computation, got %d", computeCount.Load())
	}

	_ = expensive.Get()
	if computeCount.Load() != 1 {
		t.Errorf("Expected still 1 computation (memoized), got %d", computeCount.Load())
	}

	expensive.Invalidate()
	_ = expensive.Get()
	if computeCount.Load() != 2 {
		t.Errorf("Expected 2 computations after invalidation, got %d", computeCount.Load())
	}
}

func TestComputed_ChainedDependencies(t *testing.T) {
	sched := scheduler.NewScheduler()

	a := NewState(1, sched)
	b := NewComputed(func() int { return a.Peek() + 1 }, sched).DependOn(a)
	c := NewComputed(func() int { return b.Peek() * 2 }, sched).DependOn(b)

	if got := c.Get(); got != 4 {
		t.Errorf("Expected computed value 4, got %d", got)
	}

	a.Set(5)

	if got := c.Get(); got != 12 {
		t.Errorf("Expected computed value 12 after update, got %d", got)
	}

	c.Dispose()
	b.Dispose()
}

func TestComputed_RedrawsDependentEffect(t *testing.T) {
	sched := scheduler.NewScheduler()

	size := NewState(100.0, sched)
	device := NewComputed(func() float64 { return size.Peek() * 2 }, sched).DependOn(size)

	var seen float64
	Effect(sched, "device", func() {
		seen = device.Get()
	})
	sched.Flush()

	size.Set(300)
	sched.Flush()

	if seen != 600 {
		t.Errorf("Expected effect to see 600, got %v", seen)
	}
}

func TestBatch(t *testing.T) {
	sched := scheduler.NewScheduler()

	var markDirtyCount atomic.Int32
	trackingSched := &trackingScheduler{
		Scheduler: sched,
		counter:   &markDirtyCount,
	}

	state1 := NewState(1, trackingSched)
	state2 := NewState(2, trackingSched)
	state3 := NewState(3, trackingSched)

	job := sched.CreateJob("sum", func() {})

	state1.Subscribe(job)
	state2.Subscribe(job)
	state3.Subscribe(job)

	// Without batch - each Set marks the job dirty
	markDirtyCount.Store(0)
	state1.Set(10)
	state2.Set(20)
	state3.Set(30)

	if got := markDirtyCount.Load(); got != 3 {
		t.Errorf("Expected 3 MarkDirty calls without batch, got %d", got)
	}
	sched.Flush()

	// With batch - only once at the end
	markDirtyCount.Store(0)
	RunBatch(trackingSched, func() {
		state1.Set(100)
		state2.Set(200)
		state3.Set(300)
		if got := markDirtyCount.Load(); got != 0 {
			t.Errorf("Expected no MarkDirty calls inside the batch, got %d", got)
		}
	})

	if got := markDirtyCount.Load(); got != 1 {
		t.Errorf("Expected 1 MarkDirty call with batch, got %d", got)
	}
}

func TestBatch_WatchersRunOnceAfterCommit(t *testing.T) {
	state := NewState(0, nil)

	calls := 0
	var last int
	state.Watch(func(v int) {
		calls++
		last = v
	})

	RunBatch(nil, func() {
		state.Set(1)
		state.Set(2)
		state.Set(3)
		if calls != 0 {
			t.Errorf("Expected watcher to wait for the batch, got %d calls", calls)
		}
	})

	if calls != 1 {
		t.Errorf("Expected 1 watcher call after commit, got %d", calls)
	}
	if last != 3 {
		t.Errorf("Expected watcher to see 3, got %d", last)
	}
}

func TestOnAnyChange_OncePerBatch(t *testing.T) {
	a := NewState(0, nil)
	b := NewState("", nil)
	sum := NewComputed(func() int { return a.Peek() * 2 }, nil).DependOn(a)

	calls := 0
	cancel := OnAnyChange(func() { calls++ }, a, b, sum)

	RunBatch(nil, func() {
		a.Set(1)
		b.Set("x")
	})
	if calls != 1 {
		t.Errorf("Expected 1 call for a batch touching every source, got %d", calls)
	}

	b.Set("y")
	if calls != 2 {
		t.Errorf("Expected 1 more call outside a batch, got %d", calls-1)
	}

	cancel()
	a.Set(5)
	b.Set("z")
	if calls != 2 {
		t.Errorf("Expected no calls after cancel, got %d", calls-2)
	}
}

// trackingScheduler wraps a scheduler to count MarkDirty calls
type trackingScheduler struct {
	*scheduler.Scheduler
	counter *atomic.Int32
}

func (t *trackingScheduler) MarkDirty(job *scheduler.Job) {
	t.counter.Add(1)
	t.Scheduler.MarkDirty(job)
}

func TestSignal_Unsubscribe(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState("test", sched)

	job := sched.CreateJob("j", func() {})

	state.Subscribe(job)
	if len(state.obs.jobs) != 1 {
		t.Errorf("Expected 1 dependency after subscribe, got %d", len(state.obs.jobs))
	}

	state.Unsubscribe(job)
	if len(state.obs.jobs) != 0 {
		t.Errorf("Expected 0 dependencies after unsubscribe, got %d", len(state.obs.jobs))
	}
}

func TestSignal_NilJob(t *testing.T) {
	sched := scheduler.NewScheduler()
	state := NewState(42, sched)

	// Should not panic with nil job
	state.Subscribe(nil)
	state.Unsubscribe(nil)

	SetCurrentJob(nil)
	if val := state.Get(); val != 42 {
		t.Errorf("Expected value 42, got %d", val)
	}
}

func BenchmarkState_Get(b *testing.B) {
	sched := scheduler.NewScheduler()
	state := NewState(42, sched)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = state.Get()
	}
}

func BenchmarkState_Set(b *testing.B) {
	sched := scheduler.NewScheduler()
	state := NewState(0, sched)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		state.Set(i)
	}
}
