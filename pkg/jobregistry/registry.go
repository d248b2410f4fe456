package jobregistry

import "sync"

// Registry is the in-memory table of running jobs.
//
// Output appends may arrive from a different execution context than
// registration and removal, so all operations on a handle are guarded by
// one mutex and are linearizable. Remove of an unknown handle is a
// no-op: a cancellation sweep may already have retired the job by the
// time its exit callback fires.
type Registry struct {
	mu   sync.Mutex
	next Handle
	jobs map[Handle]*Job
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[Handle]*Job)}
}

// Register assigns the job a fresh handle and stores it.
func (r *Registry) Register(job *Job) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	job.Handle = r.next
	r.jobs[job.Handle] = job
	return job.Handle
}

// Lookup returns the job for a handle, or false if it was never
// registered or has already been removed.
func (r *Registry) Lookup(h Handle) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[h]
	return job, ok
}

// Remove deletes the job for a handle. Unknown handles are ignored.
func (r *Registry) Remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, h)
}

// SetProc attaches the process handle to a job after a successful
// launch. No-op for handles already removed.
func (r *Registry) SetProc(h Handle, p Stopper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[h]; ok {
		job.Proc = p
	}
}

// Drain removes every job and returns them, for a shutdown sweep.
func (r *Registry) Drain() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for h, job := range r.jobs {
		out = append(out, job)
		delete(r.jobs, h)
	}
	return out
}

// AppendOutput adds one captured output line to a job. Appends for
// removed handles are dropped silently.
func (r *Registry) AppendOutput(h Handle, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[h]; ok {
		job.Output = append(job.Output, line)
	}
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Handles returns a snapshot of all registered handles.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.jobs))
	for h := range r.jobs {
		out = append(out, h)
	}
	return out
}
