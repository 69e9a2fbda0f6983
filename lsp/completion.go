// Copyright © 2024 The ELPS authors

package lsp

import (
	"sort"
	"strings"

	"github.com/luthersystems/elisp/lisp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	prefix := prefixAtPosition(doc.Content, int(params.Position.Line), int(params.Position.Character))
	return completionItems(doc, prefix), nil
}

// completionItems returns the document definitions and builtins whose
// names start with prefix, sorted by label.  A document definition hides a
// builtin with the same name.
func completionItems(doc *Document, prefix string) []protocol.CompletionItem {
	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	for _, def := range doc.defs {
		if !strings.HasPrefix(def.Name, prefix) || seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		kind := protocol.CompletionItemKindFunction
		if def.Kind == defVariable {
			kind = protocol.CompletionItemKindVariable
		}
		items = append(items, completionItem(def.Name, kind, def.Signature, def.Doc))
	}
	for _, b := range lisp.Builtins() {
		if !strings.HasPrefix(b.Name, prefix) || seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		kind := protocol.CompletionItemKindFunction
		if b.Special {
			kind = protocol.CompletionItemKindKeyword
		}
		items = append(items, completionItem(b.Name, kind, b.Signature, b.Doc))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func completionItem(label string, kind protocol.CompletionItemKind, detail, doc string) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:  label,
		Kind:   &kind,
		Detail: strPtr(detail),
	}
	if doc != "" {
		item.Documentation = &protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: doc,
		}
	}
	return item
}
