package engine

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/linter"
)

// checkLSP obtains (or reuses) a server connection for the linter and
// requests fresh diagnostics. Returns whether a request actually went
// out; only then is the linter marked active.
func (e *Engine) checkLSP(st *documentState, l *linter.Linter) bool {
	if e.connector == nil {
		return false
	}

	conn, err := e.connector.Connect(st.doc, l, func(connID string, msg LSPMessage) {
		e.post(lspEvent{connID: connID, msg: msg})
	})
	if err != nil || conn == nil {
		e.log.Debug("lsp connect failed",
			zap.String("linter", l.Name),
			zap.String("path", st.doc.Path),
			zap.Error(err))
		return false
	}
	e.connLinters[conn.ID()] = l.Name

	var msg any
	if l.Kind == linter.LSPTSServer {
		msg = GetErrRequest{Filename: st.doc.Path}
	} else {
		msg = SyncRequest{
			Filename: st.doc.Path,
			Lines:    append([]string(nil), st.doc.Lines...),
		}
	}

	id, err := conn.Send(msg)
	if err != nil || id == 0 {
		e.log.Debug("lsp send failed",
			zap.String("linter", l.Name),
			zap.Error(err))
		return false
	}

	st.active[l.Name] = struct{}{}
	return true
}

// handleLSPMessage routes a pushed diagnostics notification back to the
// linter that owns the connection and the document the message names.
// Unmatched documents are dropped silently: documents close
// asynchronously relative to in-flight server work.
func (e *Engine) handleLSPMessage(connID string, msg LSPMessage) {
	name, ok := e.connLinters[connID]
	if !ok {
		return
	}
	st := e.findDocByPath(msg.Filename)
	if st == nil {
		return
	}
	l := st.linters[name]
	if l == nil {
		return
	}

	var raws []diag.Raw
	switch msg.Kind {
	case LSPSemanticDiagnostics, LSPSyntaxDiagnostics:
		// Either half may arrive at any time and supersedes only
		// itself; the merge always sees semantic findings first.
		p := st.partial[name]
		if p == nil {
			p = &partialDiags{}
			st.partial[name] = p
		}
		if msg.Kind == LSPSemanticDiagnostics {
			p.semantic = msg.Diagnostics
		} else {
			p.syntax = msg.Diagnostics
		}
		raws = append(append([]diag.Raw(nil), p.semantic...), p.syntax...)
	default:
		raws = msg.Diagnostics
	}

	delete(st.active, name)
	e.publish(st, name, diag.NormalizeAll(raws, st.doc.LineCount(), name, l.SeverityRemap))
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
