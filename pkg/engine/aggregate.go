package engine

import (
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/pkg/diag"
)

// publish replaces one linter's contribution in the document's merged
// list, re-sorts, forwards the full list to sinks and settles if the
// round is over. Publication always fully replaces the linter's prior
// entries, never appends to them.
func (e *Engine) publish(st *documentState, linterName string, diags []diag.Diagnostic) {
	kept := make([]diag.Diagnostic, 0, len(st.diags)+len(diags))
	for _, d := range st.diags {
		if d.Linter != linterName {
			kept = append(kept, d)
		}
	}
	kept = append(kept, diags...)
	diag.Sort(kept)
	st.diags = kept

	e.forward(st)
	e.maybeSettle(st)
}

// publishEmpty clears the whole list, covering rounds in which nothing
// started and nothing is pending.
func (e *Engine) publishEmpty(st *documentState) {
	st.diags = nil
	e.forward(st)
	e.maybeSettle(st)
}

func (e *Engine) forward(st *documentState) {
	if e.suppress != nil && e.suppress(st.doc) {
		return
	}
	out := append([]diag.Diagnostic(nil), st.diags...)
	for _, s := range e.sinks {
		s.Publish(st.doc, out)
	}
	e.publishes.Add(1)
}

// maybeSettle fires the settle transition once a document has zero
// running jobs and zero active linters: temp resources are released and
// sinks get an end-of-round notification.
func (e *Engine) maybeSettle(st *documentState) {
	if len(st.jobs) != 0 || len(st.active) != 0 {
		return
	}
	if err := st.temp.Release(); err != nil {
		e.log.Warn("temp resource release failed",
			zap.String("path", st.doc.Path),
			zap.Error(err))
	}
	for _, s := range e.sinks {
		s.Settled(st.doc)
	}
}
