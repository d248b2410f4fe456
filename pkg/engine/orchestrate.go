package engine

import (
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
)

// handleRun processes one lint round for a document.
func (e *Engine) handleRun(ev runEvent) {
	st := e.ensureDoc(ev.doc)

	// Per-edit rounds are throttled per document; explicit rounds with
	// file-level linters enabled always run.
	if !ev.fileLevel && st.limiter != nil && !st.limiter.Allow() {
		return
	}

	// Stale jobs first, so their output can never land after this
	// round's.
	e.cancelStale(st, ev.fileLevel)

	requested := make(map[string]struct{}, len(ev.linters))
	for _, l := range ev.linters {
		requested[l.Name] = struct{}{}
	}
	e.dropUnrequested(st, requested)

	started := false
	pending := false
	for _, l := range ev.linters {
		st.linters[l.Name] = l

		if !l.AppliesTo(st.doc.Path) {
			continue
		}
		if l.FileLevel && !ev.fileLevel {
			// Skipped this round, but its previous results are still
			// valid (or still on the way): don't clear the list.
			pending = true
			continue
		}
		if l.Kind != linter.LSPNone {
			if e.checkLSP(st, l) {
				started = true
			}
			continue
		}
		if !e.prober.IsExecutable(l.Executable) {
			e.log.Debug("linter executable not found",
				zap.String("linter", l.Name),
				zap.String("executable", l.Executable))
			continue
		}
		if e.startChain(st, l, 0, nil) {
			started = true
		}
	}

	// Covers "user disabled all linters": nothing will produce output,
	// so the published list must empty out now rather than go stale.
	if !started && !pending && len(st.jobs) == 0 && len(st.active) == 0 {
		e.publishEmpty(st)
	}
}

// dropUnrequested removes diagnostics (and partial results) contributed
// by linters absent from the current round's request set.
func (e *Engine) dropUnrequested(st *documentState, requested map[string]struct{}) {
	kept := make([]diag.Diagnostic, 0, len(st.diags))
	for _, d := range st.diags {
		if _, ok := requested[d.Linter]; ok {
			kept = append(kept, d)
		}
	}
	st.diags = kept

	for name := range st.partial {
		if _, ok := requested[name]; !ok {
			delete(st.partial, name)
		}
	}
}

// cancelStale stops and retires every running job for the document,
// sparing file-level linters' jobs unless includeFileLevel is set.
func (e *Engine) cancelStale(st *documentState, includeFileLevel bool) {
	for h := range st.jobs {
		job, ok := e.registry.Lookup(h)
		if !ok {
			delete(st.jobs, h)
			continue
		}
		if !includeFileLevel {
			if l := st.linters[job.Linter]; l != nil && l.FileLevel {
				continue
			}
		}
		e.cancelJob(st, job)
	}
}

func (e *Engine) cancelJob(st *documentState, job *jobregistry.Job) {
	if job.Proc != nil {
		job.Proc.Stop()
	}
	e.registry.Remove(job.Handle)
	delete(st.jobs, job.Handle)
	delete(st.active, job.Linter)
	e.jobsCancelled.Add(1)
	e.log.Debug("linter job cancelled",
		zap.String("linter", job.Linter),
		zap.Uint64("handle", uint64(job.Handle)))
	e.recordRun(st, job.Linter, "", jobregistry.RunStateCancelled, 0)
}

// handleCleanup cancels everything for the document, including
// file-level jobs, releases temp resources and discards the state.
func (e *Engine) handleCleanup(docID int) {
	st, ok := e.docs[docID]
	if !ok {
		return
	}
	e.cancelStale(st, true)
	if err := st.temp.Release(); err != nil {
		e.log.Warn("temp resource release failed",
			zap.Int("document", docID),
			zap.Error(err))
	}
	delete(e.docs, docID)
}
