package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/linter"
)

type fakeConn struct {
	id      string
	root    string
	sendID  int64
	sendErr error

	mu   sync.Mutex
	sent []any
}

func (c *fakeConn) ID() string          { return c.id }
func (c *fakeConn) ProjectRoot() string { return c.root }

func (c *fakeConn) Send(msg any) (int64, error) {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return c.sendID, c.sendErr
}

type fakeConnector struct {
	conn       *fakeConn
	connectErr error

	mu        sync.Mutex
	onMessage func(connID string, msg LSPMessage)
}

func (f *fakeConnector) Connect(_ linter.Document, _ *linter.Linter, onMessage func(string, LSPMessage)) (Conn, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.mu.Lock()
	f.onMessage = onMessage
	f.mu.Unlock()
	return f.conn, nil
}

// deliver pushes a server notification and waits for the engine to
// process it.
func (f *fakeConnector) deliver(t *testing.T, e *Engine, msg LSPMessage) {
	t.Helper()
	f.mu.Lock()
	fn := f.onMessage
	f.mu.Unlock()
	if fn == nil {
		t.Fatal("no notification callback registered")
	}
	fn(f.conn.id, msg)
	_ = e.Stats() // flush: queries are processed after earlier events
}

func tsserverLinter(name string) *linter.Linter {
	return &linter.Linter{Name: name, Kind: linter.LSPTSServer}
}

func TestEngine_TSServerHalvesConcatenatedSemanticFirst(t *testing.T) {
	connector := &fakeConnector{conn: &fakeConn{id: "conn-1", root: "/proj", sendID: 1}}
	e := New(Config{Spawner: &fakeSpawner{}, Connector: connector, Prober: alwaysExecutable()})
	defer e.Close()

	doc := testDoc(1, "/proj/src/app.ts", "const x = 1")
	e.RunLinters(doc, []*linter.Linter{tsserverLinter("tsserver")}, false)
	_ = e.Stats()

	connector.conn.mu.Lock()
	sent := len(connector.conn.sent)
	var first any
	if sent > 0 {
		first = connector.conn.sent[0]
	}
	connector.conn.mu.Unlock()
	if sent != 1 {
		t.Fatalf("want one request, got %d", sent)
	}
	if _, ok := first.(GetErrRequest); !ok {
		t.Fatalf("tsserver sources use a get-errors request, got %T", first)
	}

	// Syntax arrives first; semantic findings must still sort ahead of
	// syntax findings at the same position.
	connector.deliver(t, e, LSPMessage{
		Kind:        LSPSyntaxDiagnostics,
		Filename:    doc.Path,
		Diagnostics: []diag.Raw{{Line: 1, Col: 1, Text: "syntax finding"}},
	})
	connector.deliver(t, e, LSPMessage{
		Kind:        LSPSemanticDiagnostics,
		Filename:    doc.Path,
		Diagnostics: []diag.Raw{{Line: 1, Col: 1, Text: "semantic finding"}},
	})

	got, _ := e.Diagnostics(1)
	if len(got) != 2 {
		t.Fatalf("want both halves merged, got %+v", got)
	}
	if got[0].Text != "semantic finding" || got[1].Text != "syntax finding" {
		t.Fatalf("semantic half must precede syntax half: %+v", got)
	}

	// A fresh semantic half supersedes only itself.
	connector.deliver(t, e, LSPMessage{
		Kind:        LSPSemanticDiagnostics,
		Filename:    doc.Path,
		Diagnostics: nil,
	})
	got, _ = e.Diagnostics(1)
	if len(got) != 1 || got[0].Text != "syntax finding" {
		t.Fatalf("syntax half should survive a semantic update: %+v", got)
	}
}

func TestEngine_GenericLSPPublishReplacesWholeSet(t *testing.T) {
	connector := &fakeConnector{conn: &fakeConn{id: "conn-1", root: "/proj", sendID: 7}}
	e := New(Config{Spawner: &fakeSpawner{}, Connector: connector, Prober: alwaysExecutable()})
	defer e.Close()

	doc := testDoc(1, "/proj/lib.rs", "fn main() {}")
	l := &linter.Linter{Name: "rust-analyzer", Kind: linter.LSPGeneric}
	e.RunLinters(doc, []*linter.Linter{l}, false)
	_ = e.Stats()

	connector.conn.mu.Lock()
	first := connector.conn.sent[0]
	connector.conn.mu.Unlock()
	req, ok := first.(SyncRequest)
	if !ok {
		t.Fatalf("generic servers get a sync request, got %T", first)
	}
	if req.Filename != doc.Path || len(req.Lines) != 1 {
		t.Fatalf("sync request incomplete: %+v", req)
	}

	connector.deliver(t, e, LSPMessage{
		Kind:     LSPPublishDiagnostics,
		Filename: doc.Path,
		Diagnostics: []diag.Raw{
			{Line: 1, Col: 1, Text: "old finding"},
		},
	})
	connector.deliver(t, e, LSPMessage{
		Kind:     LSPPublishDiagnostics,
		Filename: doc.Path,
		Diagnostics: []diag.Raw{
			{Line: 1, Col: 4, Text: "new finding"},
		},
	})

	got, _ := e.Diagnostics(1)
	if len(got) != 1 || got[0].Text != "new finding" {
		t.Fatalf("publish must replace the whole set: %+v", got)
	}
}

func TestEngine_LSPUnmatchedDocumentDropped(t *testing.T) {
	connector := &fakeConnector{conn: &fakeConn{id: "conn-1", root: "/proj", sendID: 1}}
	e := New(Config{Spawner: &fakeSpawner{}, Connector: connector, Prober: alwaysExecutable()})
	defer e.Close()

	doc := testDoc(1, "/proj/a.ts", "x")
	e.RunLinters(doc, []*linter.Linter{tsserverLinter("tsserver")}, false)
	_ = e.Stats()

	// The named file closed before the server answered: not an error.
	connector.deliver(t, e, LSPMessage{
		Kind:        LSPPublishDiagnostics,
		Filename:    "/proj/closed.ts",
		Diagnostics: []diag.Raw{{Line: 1, Text: "orphan"}},
	})

	if got, _ := e.Diagnostics(1); len(got) != 0 {
		t.Fatalf("unmatched notification leaked into another document: %+v", got)
	}
}

func TestEngine_LSPFailedSendNotActive(t *testing.T) {
	t.Run("connect error", func(t *testing.T) {
		connector := &fakeConnector{connectErr: errors.New("server refused")}
		sink := &fakeSink{}
		e := New(Config{Spawner: &fakeSpawner{}, Connector: connector, Prober: alwaysExecutable(), Sinks: []Sink{sink}})
		defer e.Close()

		e.RunLinters(testDoc(1, "/proj/a.ts", "x"), []*linter.Linter{tsserverLinter("tsserver")}, false)
		if err := e.WaitUntilIdle(time.Second); err != nil {
			t.Fatalf("WaitUntilIdle: %v", err)
		}
		// Nothing started, nothing pending: the round publishes empty.
		if got, ok := e.Diagnostics(1); !ok || len(got) != 0 {
			t.Fatalf("want empty publish, got=%+v ok=%v", got, ok)
		}
	})

	t.Run("zero request id", func(t *testing.T) {
		connector := &fakeConnector{conn: &fakeConn{id: "conn-1", sendID: 0}}
		e := New(Config{Spawner: &fakeSpawner{}, Connector: connector, Prober: alwaysExecutable()})
		defer e.Close()

		e.RunLinters(testDoc(1, "/proj/a.ts", "x"), []*linter.Linter{tsserverLinter("tsserver")}, false)
		_ = e.Stats()

		e.query(func(e *Engine) {
			if len(e.docs[1].active) != 0 {
				t.Error("a failed send must not mark the linter active")
			}
		})
	})
}
