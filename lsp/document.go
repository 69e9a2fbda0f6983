// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"

	"github.com/luthersystems/elisp/astutil"
	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/luthersystems/elisp/parser/token"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	exprs    []*lisp.LVal
	defs     []*definition
	warnings []*token.LocationError
	readErr  error
}

// parse reads the document content and caches its top-level forms and the
// definitions they make.  Forms read before a reader error are kept.
func (d *Document) parse() {
	p := rdparser.New(token.NewStringScanner(uriToPath(d.URI), d.Content))
	d.exprs, d.readErr = p.ParseProgram()
	d.warnings = p.Warnings()
	d.defs = collectDefinitions(d.exprs)
}

// definitionKind distinguishes the namespaces a definition binds.
type definitionKind int

const (
	defFunction definitionKind = iota
	defVariable
)

func (k definitionKind) String() string {
	if k == defVariable {
		return "variable"
	}
	return "function"
}

// definition is a top-level defun or defvar form found in a document.
type definition struct {
	Name      string
	Kind      definitionKind
	Signature string
	Doc       string
	// Form is the location of the defining form; NameLoc the location of
	// the defined symbol.
	Form    *token.Location
	NameLoc *token.Location
}

func collectDefinitions(exprs []*lisp.LVal) []*definition {
	var defs []*definition
	for _, expr := range exprs {
		if def := parseDefinition(expr); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// parseDefinition recognizes (defun name params [doc] body...) and
// (defvar name [value [doc]]).
func parseDefinition(expr *lisp.LVal) *definition {
	head := astutil.HeadSymbol(expr)
	args := astutil.Args(expr)
	if head == "" || len(args) == 0 || !args[0].IsSymbol() {
		return nil
	}
	def := &definition{
		Name:    args[0].Str,
		Form:    expr.Source,
		NameLoc: args[0].Source,
	}
	switch head {
	case "defun":
		if len(args) < 2 || !args[1].IsList() {
			return nil
		}
		def.Kind = defFunction
		def.Signature = lisp.FormalsString(def.Name, args[1])
		if len(args) > 2 && args[2].IsString() {
			def.Doc = args[2].Str
		}
	case "defvar":
		def.Kind = defVariable
		def.Signature = def.Name
		if len(args) > 2 && args[2].IsString() {
			def.Doc = args[2].Str
		}
	default:
		return nil
	}
	return def
}

// lookup returns the document's definition of name, preferring functions
// when funcPos is true.
func (d *Document) lookup(name string, funcPos bool) *definition {
	var other *definition
	for _, def := range d.defs {
		if def.Name != name {
			continue
		}
		if (def.Kind == defFunction) == funcPos {
			return def
		}
		if other == nil {
			other = def
		}
	}
	return other
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
