package reactive

import "github.com/recera/treecanvas/pkg/scheduler"

// Effect registers fn as a job on sched and queues its first run. Every
// State or Computed that fn reads with Get while running subscribes the
// job, so later changes to them queue it again.
func Effect(sched *scheduler.Scheduler, name string, fn func()) *scheduler.Job {
	var job *scheduler.Job
	job = sched.CreateJob(name, func() {
		prev := currentJob.Swap(job)
		defer currentJob.Store(prev)
		fn()
	})
	sched.MarkDirty(job)
	return job
}
