// Copyright © 2024 The ELPS authors

package lsp

import (
	"io"
	"testing"
	"time"

	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testURI = "file:///tmp/test.el"

const testSource = `; helpers
(defvar counter 0 "Number of calls.")
(defun square (x)
  "Return x multiplied by itself."
  (* x x))
(defun counter () (setq counter (+ counter 1)))
(square (counter))
`

func testServer() *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(WithLogger(log), WithDebounce(10*time.Millisecond))
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, chan *protocol.PublishDiagnosticsParams) {
	captured := make(chan *protocol.PublishDiagnosticsParams, 16)
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured <- params.(*protocol.PublishDiagnosticsParams)
			}
		},
	}
	return ctx, captured
}

func openDoc(t *testing.T, s *Server, ctx *glsp.Context, content string) {
	t.Helper()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        testURI,
			LanguageID: "elisp",
			Version:    1,
			Text:       content,
		},
	})
	require.NoError(t, err)
}

func docPos(line, char int) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)},
	}
}

func TestPositionConversion(t *testing.T) {
	t.Run("1-based to 0-based", func(t *testing.T) {
		pos := lspPosition(&token.Location{File: "test.el", Line: 1, Col: 1})
		assert.Equal(t, protocol.UInteger(0), pos.Line)
		assert.Equal(t, protocol.UInteger(0), pos.Character)
	})
	t.Run("multi-digit", func(t *testing.T) {
		pos := lspPosition(&token.Location{File: "test.el", Line: 5, Col: 10})
		assert.Equal(t, protocol.UInteger(4), pos.Line)
		assert.Equal(t, protocol.UInteger(9), pos.Character)
	})
	t.Run("nil location", func(t *testing.T) {
		assert.Equal(t, protocol.Position{}, lspPosition(nil))
	})
	t.Run("range width", func(t *testing.T) {
		r := locationRange(&token.Location{Line: 3, Col: 5}, 4)
		assert.Equal(t, protocol.UInteger(2), r.End.Line)
		assert.Equal(t, protocol.UInteger(8), r.End.Character)
	})
}

func TestWordAtPosition(t *testing.T) {
	content := "(setq my-var (car x))"
	word, start := wordAtPosition(content, 0, 8)
	assert.Equal(t, "my-var", word)
	assert.Equal(t, 6, start)
	assert.False(t, inFunctionPosition(content, 0, start))

	word, start = wordAtPosition(content, 0, 16)
	assert.Equal(t, "car", word)
	assert.True(t, inFunctionPosition(content, 0, start))

	assert.Equal(t, "my", prefixAtPosition(content, 0, 8))
	word, _ = wordAtPosition(content, 3, 0)
	assert.Equal(t, "", word)
}

func TestInitialize(t *testing.T) {
	s := testServer()
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{})
	require.NoError(t, err)
	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, serverName, res.ServerInfo.Name)
	sync, ok := res.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
	assert.NotNil(t, res.Capabilities.HoverProvider)
	assert.NotNil(t, res.Capabilities.DocumentSymbolProvider)
	assert.NotNil(t, res.Capabilities.CompletionProvider)
}

func TestExit(t *testing.T) {
	s := testServer()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.shutdown(mockContext()))
	require.NoError(t, s.exit(mockContext()))
	assert.Equal(t, 0, code)
}

func TestDiagnosticsOnOpen(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		openDoc(t, s, ctx, testSource)
		params := <-captured
		assert.Equal(t, testURI, params.URI)
		assert.Empty(t, params.Diagnostics)
		assert.NotNil(t, params.Diagnostics)
	})
	t.Run("unterminated list", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		openDoc(t, s, ctx, "(+ 1 2)\n(defun f (x)\n  (car x)")
		params := <-captured
		require.Len(t, params.Diagnostics, 1)
		d := params.Diagnostics[0]
		assert.Equal(t, "unexpected end of input: list", d.Message)
		assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
		assert.Equal(t, protocol.Position{Line: 1, Character: 0}, d.Range.Start)
	})
	t.Run("unmatched delimiter", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		openDoc(t, s, ctx, "(+ 1 2))")
		params := <-captured
		require.Len(t, params.Diagnostics, 1)
		d := params.Diagnostics[0]
		assert.Equal(t, "unmatched delimiter", d.Message)
		assert.Equal(t, protocol.DiagnosticSeverityWarning, *d.Severity)
		assert.Equal(t, protocol.Position{Line: 0, Character: 7}, d.Range.Start)
	})
}

func TestDiagnosticsDebouncedOnChange(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	openDoc(t, s, ctx, testSource)
	<-captured

	for i, text := range []string{"(car", "(car '(1 2)", "(car '(1 2))"} {
		err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
				Version:                protocol.Integer(i + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		})
		require.NoError(t, err)
	}

	select {
	case params := <-captured:
		assert.Empty(t, params.Diagnostics)
	case <-time.After(2 * time.Second):
		t.Fatal("diagnostics were not published")
	}
	select {
	case params := <-captured:
		t.Fatalf("unexpected extra publish: %v", params.Diagnostics)
	case <-time.After(50 * time.Millisecond):
	}
	doc := s.docs.Get(testURI)
	require.NotNil(t, doc)
	assert.Equal(t, int32(4), doc.Version)
}

func TestDidClose(t *testing.T) {
	s := testServer()
	ctx, captured := capturingContext()
	openDoc(t, s, ctx, "(car")
	<-captured
	err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	params := <-captured
	assert.Empty(t, params.Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
}

func TestHover(t *testing.T) {
	s := testServer()
	openDoc(t, s, mockContext(), testSource)

	hover := func(line, char int) string {
		h, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
			TextDocumentPositionParams: docPos(line, char),
		})
		require.NoError(t, err)
		if h == nil {
			return ""
		}
		return h.Contents.(protocol.MarkupContent).Value
	}

	t.Run("primitive", func(t *testing.T) {
		v := hover(4, 3)
		assert.Contains(t, v, "**primitive**")
		assert.Contains(t, v, "(* &rest numbers)")
	})
	t.Run("special form", func(t *testing.T) {
		v := hover(2, 2)
		assert.Contains(t, v, "**special form**")
		assert.Contains(t, v, "(defun name params &optional docstring &rest body)")
	})
	t.Run("user function", func(t *testing.T) {
		v := hover(6, 3)
		assert.Contains(t, v, "**function**")
		assert.Contains(t, v, "(square x)")
		assert.Contains(t, v, "Return x multiplied by itself.")
		assert.Contains(t, v, "*Defined at line 3*")
	})
	t.Run("variable namespace", func(t *testing.T) {
		v := hover(1, 10)
		assert.Contains(t, v, "**variable**")
		assert.Contains(t, v, "Number of calls.")
	})
	t.Run("function namespace", func(t *testing.T) {
		v := hover(6, 10)
		assert.Contains(t, v, "**function**")
		assert.Contains(t, v, "(counter)")
	})
	t.Run("nothing", func(t *testing.T) {
		assert.Equal(t, "", hover(0, 0))
		assert.Equal(t, "", hover(6, 20))
	})
}

func TestCompletion(t *testing.T) {
	s := testServer()
	openDoc(t, s, mockContext(), testSource+"(s")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: docPos(7, 2),
	})
	require.NoError(t, err)
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)
	var labels []string
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "square")
	assert.Contains(t, labels, "setq")
	assert.Contains(t, labels, "symbol-name")
	assert.NotContains(t, labels, "car")
	for _, item := range items {
		assert.Regexp(t, `^s`, item.Label)
		if item.Label == "square" {
			assert.Equal(t, protocol.CompletionItemKindFunction, *item.Kind)
			assert.Equal(t, "(square x)", *item.Detail)
		}
		if item.Label == "setq" {
			assert.Equal(t, protocol.CompletionItemKindKeyword, *item.Kind)
		}
	}
}

func TestCompletionUnknownDocument(t *testing.T) {
	s := testServer()
	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: docPos(0, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDocumentSymbols(t *testing.T) {
	s := testServer()
	openDoc(t, s, mockContext(), testSource)

	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 3)

	assert.Equal(t, "counter", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindVariable, symbols[0].Kind)
	assert.Equal(t, "square", symbols[1].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[1].Kind)
	assert.Equal(t, "(square x)", *symbols[1].Detail)
	assert.Equal(t, protocol.Position{Line: 2, Character: 7}, symbols[1].SelectionRange.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 13}, symbols[1].SelectionRange.End)
	assert.Equal(t, protocol.Position{Line: 2, Character: 0}, symbols[1].Range.Start)
	assert.Equal(t, "counter", symbols[2].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[2].Kind)
}

func TestParseDefinition(t *testing.T) {
	s := testServer()
	doc := s.docs.Open(testURI, 1, `(defun) (defvar) (defun f x) (defvar 5) (print "x") (defun g () "only doc")`)
	require.Len(t, doc.defs, 1)
	assert.Equal(t, "g", doc.defs[0].Name)
	assert.Equal(t, "only doc", doc.defs[0].Doc)
}
