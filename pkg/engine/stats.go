package engine

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	Documents     int   `json:"documents"`
	RunningJobs   int   `json:"running_jobs"`
	JobsStarted   int64 `json:"jobs_started"`
	JobsFailed    int64 `json:"jobs_failed"`
	JobsCancelled int64 `json:"jobs_cancelled"`
	Publishes     int64 `json:"publishes"`
}

// Stats returns current counters. The counters are monotonic for the
// engine's lifetime; Documents and RunningJobs are instantaneous.
func (e *Engine) Stats() Stats {
	s := Stats{
		RunningJobs:   e.registry.Len(),
		JobsStarted:   e.jobsStarted.Load(),
		JobsFailed:    e.jobsFailed.Load(),
		JobsCancelled: e.jobsCancelled.Load(),
		Publishes:     e.publishes.Load(),
	}
	e.query(func(e *Engine) { s.Documents = len(e.docs) })
	return s
}
