// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/elisp/astutil"
	"github.com/luthersystems/elisp/lisp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	line := int(params.Position.Line)
	col := int(params.Position.Character)

	doc.mu.Lock()
	defer doc.mu.Unlock()

	name, start, funcPos := symbolAtPosition(doc, line, col)
	if name == "" {
		return nil, nil
	}
	content := hoverContent(doc, name, funcPos)
	if content == "" {
		return nil, nil
	}
	r := protocol.Range{
		Start: protocol.Position{Line: safeUint(line), Character: safeUint(start)},
		End:   protocol.Position{Line: safeUint(line), Character: safeUint(start + len(name))},
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &r,
	}, nil
}

// symbolAtPosition finds the symbol under the 0-based position and whether
// it heads a form.  Parsed forms are searched first; text the reader could
// not finish falls back to a scan of the line.
func symbolAtPosition(doc *Document, line, col int) (string, int, bool) {
	if sym, parent := astutil.SymbolAt(doc.exprs, line+1, col+1); sym != nil {
		return sym.Str, sym.Source.Col - 1, astutil.InFunctionPosition(sym, parent)
	}
	name, start := wordAtPosition(doc.Content, line, col)
	return name, start, inFunctionPosition(doc.Content, line, start)
}

// hoverContent builds Markdown hover text for name.  Definitions in the
// document shadow primitives of the same name.
func hoverContent(doc *Document, name string, funcPos bool) string {
	if def := doc.lookup(name, funcPos); def != nil {
		loc := ""
		if def.Form != nil {
			loc = fmt.Sprintf("line %d", def.Form.Line)
		}
		return formatHover(def.Kind.String(), def.Signature, def.Doc, loc)
	}
	if b, ok := lisp.LookupBuiltin(name); ok {
		kind := "primitive"
		if b.Special {
			kind = "special form"
		}
		return formatHover(kind, b.Signature, b.Doc, "")
	}
	return ""
}

func formatHover(kind, signature, doc, loc string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n\n```lisp\n%s\n```", kind, signature)
	if doc != "" {
		fmt.Fprintf(&sb, "\n\n%s", doc)
	}
	if loc != "" {
		fmt.Fprintf(&sb, "\n\n*Defined at %s*", loc)
	}
	return sb.String()
}
