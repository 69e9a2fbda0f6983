// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	symbols := []protocol.DocumentSymbol{}
	for _, def := range doc.defs {
		if def.NameLoc == nil {
			continue
		}
		kind := protocol.SymbolKindFunction
		if def.Kind == defVariable {
			kind = protocol.SymbolKindVariable
		}
		r := locationRange(def.NameLoc, len(def.Name))
		full := r
		if def.Form != nil {
			full = protocol.Range{Start: lspPosition(def.Form), End: r.End}
		}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           def.Name,
			Detail:         strPtr(def.Signature),
			Kind:           kind,
			Range:          full,
			SelectionRange: r,
		})
	}
	return symbols, nil
}
