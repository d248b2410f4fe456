package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
)

// startChain resolves the linter's command chain from the given step and
// launches the resolved command. Returns false when every remaining step
// resolves empty, which makes the round a no-op for this linter.
func (e *Engine) startChain(st *documentState, l *linter.Linter, start int, input []string) bool {
	res, ok := linter.ResolveStep(l, start, input, st.doc)
	if !ok {
		return false
	}
	return e.startProcess(st, l, res)
}

// startProcess launches one resolved chain step as an OS process.
//
// The job is registered before the spawn so the output and exit
// callbacks can never observe an unknown handle; a failed launch rolls
// the registration back before anything else saw it.
func (e *Engine) startProcess(st *documentState, l *linter.Linter, res linter.Resolved) bool {
	command := strings.ReplaceAll(res.Command, "%e", l.Executable)

	var stdin []string
	switch res.Read {
	case linter.ReadStdin:
		stdin = st.doc.Lines
		if l.TrailingNewline {
			// Extra empty line so the process sees a final newline.
			stdin = append(append([]string(nil), st.doc.Lines...), "")
		}
	case linter.ReadTempFile:
		path, err := e.materialize(st)
		if err != nil {
			e.log.Warn("document materialization failed",
				zap.String("linter", l.Name),
				zap.String("path", st.doc.Path),
				zap.Error(err))
			e.jobsFailed.Add(1)
			e.recordRun(st, l.Name, command, jobregistry.RunStateFailed, 0)
			return false
		}
		command = strings.ReplaceAll(command, "%t", path)
	}

	h := e.registry.Register(&jobregistry.Job{
		Linter:    l.Name,
		Document:  st.doc.ID,
		ChainStep: res.Next - 1,
	})

	spec := SpawnSpec{
		Command: command,
		Stdin:   stdin,
		OnExit:  func(code int) { e.post(exitEvent{handle: h, code: code}) },
	}
	if res.Stream == linter.StreamBoth || res.Stream == linter.StreamStdout {
		spec.OnStdout = func(line string) { e.post(outputEvent{handle: h, line: line}) }
	}
	if res.Stream == linter.StreamBoth || res.Stream == linter.StreamStderr {
		spec.OnStderr = func(line string) { e.post(outputEvent{handle: h, line: line}) }
	}

	proc, err := e.spawner.Start(spec)
	if err != nil {
		e.registry.Remove(h)
		e.jobsFailed.Add(1)
		e.log.Warn("linter failed to start",
			zap.String("linter", l.Name),
			zap.String("command", command),
			zap.Error(err))
		e.recordRun(st, l.Name, command, jobregistry.RunStateFailed, 0)
		return false
	}

	e.registry.SetProc(h, proc)
	st.jobs[h] = struct{}{}
	st.active[l.Name] = struct{}{}
	e.jobsStarted.Add(1)
	e.log.Debug("linter job started",
		zap.String("linter", l.Name),
		zap.Int("document", st.doc.ID),
		zap.Uint64("handle", uint64(h)),
		zap.Int("chain_step", res.Next-1))
	e.recordRun(st, l.Name, command, jobregistry.RunStateStarted, 0)
	return true
}

// materialize writes the document's current lines into a fresh
// owner-only temp directory and returns the file's path. The directory
// is tracked for release on settle or cleanup.
func (e *Engine) materialize(st *documentState) (string, error) {
	dir, err := os.MkdirTemp("", "lintkit-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	name := filepath.Base(st.doc.Path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	path := filepath.Join(dir, name)

	content := strings.Join(st.doc.Lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write temp document: %w", err)
	}

	st.temp.AddDir(dir)
	return path, nil
}

// handleExit retires a finished job: continue its chain if steps remain,
// otherwise parse the accumulated output and merge the results.
func (e *Engine) handleExit(h jobregistry.Handle, code int) {
	job, ok := e.registry.Lookup(h)
	if !ok {
		// Already retired by a cancellation sweep.
		return
	}
	e.registry.Remove(h)

	st, ok := e.docs[job.Document]
	if !ok {
		return
	}
	delete(st.jobs, h)
	delete(st.active, job.Linter)

	out := job.Output
	if n := len(out); n > 0 && out[n-1] == "" {
		// Some environments report a spurious empty final line.
		out = out[:n-1]
	}

	l := st.linters[job.Linter]
	e.recordRun(st, job.Linter, "", jobregistry.RunStateExited, code)

	if l != nil && job.ChainStep < len(l.Steps())-1 {
		if e.startChain(st, l, job.ChainStep+1, out) {
			return
		}
		// Every remaining step resolved empty: nothing left to parse.
		e.maybeSettle(st)
		return
	}

	if l != nil && l.Parse != nil {
		raws := l.Parse(st.doc, out)
		e.publish(st, l.Name, diag.NormalizeAll(raws, st.doc.LineCount(), l.Name, l.SeverityRemap))
		return
	}
	e.maybeSettle(st)
}

// recordRun appends to the document's in-memory audit trail and, when a
// history store is configured, persists the record best-effort.
func (e *Engine) recordRun(st *documentState, linterName, command string, state jobregistry.RunState, exitCode int) {
	rec := jobregistry.RunRecord{
		Linter:    linterName,
		Document:  st.doc.Path,
		Command:   command,
		State:     state,
		ExitCode:  exitCode,
		CreatedAt: time.Now().UTC(),
	}
	if state != jobregistry.RunStateStarted {
		ended := rec.CreatedAt
		rec.EndedAt = &ended
	}
	if e.history != nil {
		if _, err := e.history.Append(&rec); err != nil {
			e.log.Warn("run history write failed", zap.Error(err))
		}
	}
	st.history = append(st.history, rec)
}
