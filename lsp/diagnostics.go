// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const defaultDebounce = 300 * time.Millisecond

const diagnosticSource = "elisp"

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.publishDiagnostics(doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	uri := doc.URI
	s.debounce[uri] = time.AfterFunc(s.delay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("uri", uri).Errorf("lsp diagnostics panic: %v", r)
			}
		}()
		if d := s.docs.Get(uri); d != nil {
			s.publishDiagnostics(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.publishDiagnostics(doc)
	}
	return nil
}

func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// publishDiagnostics sends the reader diagnostics of doc to the client.
func (s *Server) publishDiagnostics(doc *Document) {
	doc.mu.Lock()
	uri := doc.URI
	version := doc.Version
	diags := documentDiagnostics(doc)
	doc.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"uri":         uri,
		"version":     version,
		"diagnostics": len(diags),
	}).Debug("lsp publish diagnostics")

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// documentDiagnostics converts the reader error and warnings of doc.  The
// result is never nil so that clients clear stale diagnostics.
func documentDiagnostics(doc *Document) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, w := range doc.warnings {
		diags = append(diags, protocol.Diagnostic{
			Range:    locationRange(w.Source, 1),
			Severity: severity(protocol.DiagnosticSeverityWarning),
			Source:   strPtr(diagnosticSource),
			Message:  w.Err.Error(),
		})
	}
	if doc.readErr != nil {
		diags = append(diags, readErrorDiagnostic(doc.readErr))
	}
	return diags
}

func readErrorDiagnostic(err error) protocol.Diagnostic {
	d := protocol.Diagnostic{
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr(diagnosticSource),
		Message:  err.Error(),
	}
	var rerr *lisp.ReaderError
	if errors.As(err, &rerr) {
		d.Message = rerr.Kind.String()
		if rerr.Detail != "" {
			d.Message += ": " + rerr.Detail
		}
		d.Range = locationRange(rerr.Source, 1)
		return d
	}
	var lerr *token.LocationError
	if errors.As(err, &lerr) {
		d.Message = lerr.Err.Error()
		d.Range = locationRange(lerr.Source, 1)
	}
	return d
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}
