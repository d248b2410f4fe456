// Package engine is the asynchronous execution core of lintkit: it
// launches linter processes and LSP requests for in-memory documents,
// tracks their lifecycles, merges their results into one sorted
// diagnostic list per document, and republishes that list whenever it
// changes.
//
// All mutable state — the job registry and the per-document state map —
// is owned by a single event-loop goroutine fed by an inbound channel.
// Process output, process exits and LSP notifications arrive as events
// posted from collaborator goroutines, so no two state mutations ever
// race. The one blocking entry point is WaitUntilIdle, which must not be
// called from a Sink or other loop-side callback.
package engine

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
	"github.com/3leaps/lintkit/pkg/probe"
	"github.com/3leaps/lintkit/pkg/tempres"
)

// Config configures an Engine. The zero value is usable: it runs real
// processes, no LSP connector, no sinks, and a no-op logger.
type Config struct {
	// Logger receives job lifecycle events at Debug and failures at
	// Warn. Defaults to a no-op logger.
	Logger *zap.Logger

	// Spawner launches linter processes. Defaults to NewExecSpawner().
	Spawner Spawner

	// Connector serves LSP-backed linters. Without one, LSP linters
	// silently contribute nothing.
	Connector LSPConnector

	// Prober checks executables. Defaults to probe.New().
	Prober *probe.Prober

	// Clock supplies deadline timestamps for WaitUntilIdle.
	Clock Clock

	// History, when set, persists a record per command run.
	History *jobregistry.HistoryStore

	// Sinks receive every published diagnostic list.
	Sinks []Sink

	// Suppress, when set, withholds publication to sinks for documents
	// it reports true for. The merged list is still maintained.
	Suppress func(doc linter.Document) bool

	// MinRelintInterval throttles non-file-level lint rounds per
	// document. Zero disables throttling. Rounds with file-level
	// linters enabled (explicit user runs) always bypass the throttle.
	MinRelintInterval time.Duration

	// SettleDelay is how long WaitUntilIdle lingers after the last
	// observed drain, to let callback scheduling catch up.
	// Default: 15ms.
	SettleDelay time.Duration

	// PollInterval is the WaitUntilIdle re-check period.
	// Default: 10ms.
	PollInterval time.Duration

	// EventBuffer sizes the inbound event channel. Default: 256.
	EventBuffer int
}

// Engine runs linters for documents and aggregates their diagnostics.
//
// Create with New, release with Close.
type Engine struct {
	log       *zap.Logger
	spawner   Spawner
	connector LSPConnector
	prober    *probe.Prober
	clock     Clock
	history   *jobregistry.HistoryStore
	sinks     []Sink
	suppress  func(doc linter.Document) bool

	minRelint   time.Duration
	settleDelay time.Duration
	pollEvery   time.Duration

	registry *jobregistry.Registry

	// Loop-owned state. Only the event loop goroutine touches these.
	docs        map[int]*documentState
	connLinters map[string]string

	events chan event
	done   chan struct{}
	closed atomic.Bool

	jobsStarted   atomic.Int64
	jobsFailed    atomic.Int64
	jobsCancelled atomic.Int64
	publishes     atomic.Int64
}

// New creates an Engine and starts its event loop.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Spawner == nil {
		cfg.Spawner = NewExecSpawner()
	}
	if cfg.Prober == nil {
		cfg.Prober = probe.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = newWallClock()
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 15 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}

	e := &Engine{
		log:         cfg.Logger,
		spawner:     cfg.Spawner,
		connector:   cfg.Connector,
		prober:      cfg.Prober,
		clock:       cfg.Clock,
		history:     cfg.History,
		sinks:       cfg.Sinks,
		suppress:    cfg.Suppress,
		minRelint:   cfg.MinRelintInterval,
		settleDelay: cfg.SettleDelay,
		pollEvery:   cfg.PollInterval,
		registry:    jobregistry.NewRegistry(),
		docs:        make(map[int]*documentState),
		connLinters: make(map[string]string),
		events:      make(chan event, cfg.EventBuffer),
		done:        make(chan struct{}),
	}
	go e.loop()
	return e
}

// Close stops the event loop and terminates any still-running jobs.
// The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	close(e.done)
	for _, job := range e.registry.Drain() {
		if job.Proc != nil {
			job.Proc.Stop()
		}
	}
}

// RunLinters starts a lint round for the document with the given
// linters.
//
// Running jobs for the document from earlier rounds are cancelled first,
// except jobs of file-level linters, which are only cancelled (and only
// started) when fileLevel is true. If nothing starts and nothing is
// pending, an empty diagnostic list is published immediately.
func (e *Engine) RunLinters(doc linter.Document, linters []*linter.Linter, fileLevel bool) {
	e.post(runEvent{doc: doc, linters: linters, fileLevel: fileLevel})
}

// Cleanup cancels everything running for the document, including
// file-level jobs, releases its temp resources and discards its state.
func (e *Engine) Cleanup(docID int) {
	e.post(cleanupEvent{doc: docID})
}

// Diagnostics returns the last published list for a document. ok is
// false for untracked documents.
func (e *Engine) Diagnostics(docID int) (diags []diag.Diagnostic, ok bool) {
	e.query(func(e *Engine) {
		st, found := e.docs[docID]
		if !found {
			return
		}
		ok = true
		diags = append([]diag.Diagnostic(nil), st.diags...)
	})
	return diags, ok
}

// Documents returns a snapshot of all tracked documents.
func (e *Engine) Documents() []linter.Document {
	var out []linter.Document
	e.query(func(e *Engine) {
		for _, st := range e.docs {
			out = append(out, st.doc)
		}
	})
	return out
}

// History returns the in-memory audit trail for a document, oldest
// first. Best-effort: the trail is discarded with the document state.
func (e *Engine) History(docID int) []jobregistry.RunRecord {
	var out []jobregistry.RunRecord
	e.query(func(e *Engine) {
		if st, ok := e.docs[docID]; ok {
			out = append(out, st.history...)
		}
	})
	return out
}

// event is one unit of work for the loop goroutine.
type event interface {
	apply(e *Engine)
}

type runEvent struct {
	doc       linter.Document
	linters   []*linter.Linter
	fileLevel bool
}

func (ev runEvent) apply(e *Engine) { e.handleRun(ev) }

type cleanupEvent struct {
	doc int
}

func (ev cleanupEvent) apply(e *Engine) { e.handleCleanup(ev.doc) }

type outputEvent struct {
	handle jobregistry.Handle
	line   string
}

func (ev outputEvent) apply(e *Engine) { e.registry.AppendOutput(ev.handle, ev.line) }

type exitEvent struct {
	handle jobregistry.Handle
	code   int
}

func (ev exitEvent) apply(e *Engine) { e.handleExit(ev.handle, ev.code) }

type lspEvent struct {
	connID string
	msg    LSPMessage
}

func (ev lspEvent) apply(e *Engine) { e.handleLSPMessage(ev.connID, ev.msg) }

type queryEvent struct {
	fn   func(e *Engine)
	done chan struct{}
}

func (ev queryEvent) apply(e *Engine) {
	ev.fn(e)
	close(ev.done)
}

// post enqueues an event, dropping it if the engine is closed.
func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// query runs fn on the loop goroutine and waits for it. Returns false
// if the engine closed before fn ran.
func (e *Engine) query(fn func(e *Engine)) bool {
	ev := queryEvent{fn: fn, done: make(chan struct{})}
	select {
	case e.events <- ev:
	case <-e.done:
		return false
	}
	select {
	case <-ev.done:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) loop() {
	for {
		select {
		case ev := <-e.events:
			ev.apply(e)
		case <-e.done:
			return
		}
	}
}

// documentState is everything the engine tracks for one document.
type documentState struct {
	doc linter.Document

	// jobs holds handles of running jobs for this document.
	jobs map[jobregistry.Handle]struct{}

	// active holds names of linters with an in-flight job or pending
	// LSP response.
	active map[string]struct{}

	// linters remembers every linter ever requested for the document,
	// so chain continuation and exit handling can find definitions
	// after the requesting round finished.
	linters map[string]*linter.Linter

	// diags is the last published, merged, sorted list.
	diags []diag.Diagnostic

	// partial holds the per-category halves of two-part sources,
	// keyed by linter name.
	partial map[string]*partialDiags

	temp    *tempres.Tracker
	history []jobregistry.RunRecord
	limiter *rate.Limiter
}

// partialDiags stores independently-arriving diagnostic categories that
// are concatenated (semantic first) before every merge.
type partialDiags struct {
	semantic []diag.Raw
	syntax   []diag.Raw
}

func (e *Engine) ensureDoc(doc linter.Document) *documentState {
	st, ok := e.docs[doc.ID]
	if !ok {
		st = &documentState{
			jobs:    make(map[jobregistry.Handle]struct{}),
			active:  make(map[string]struct{}),
			linters: make(map[string]*linter.Linter),
			partial: make(map[string]*partialDiags),
			temp:    tempres.NewTracker(),
		}
		if e.minRelint > 0 {
			st.limiter = rate.NewLimiter(rate.Every(e.minRelint), 1)
		}
		e.docs[doc.ID] = st
	}
	st.doc = doc
	return st
}

func (e *Engine) findDocByPath(path string) *documentState {
	if path == "" {
		return nil
	}
	for _, st := range e.docs {
		if samePath(st.doc.Path, path) {
			return st
		}
	}
	return nil
}
