// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/luthersystems/elisp/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// lspPosition converts a 1-based source location to a 0-based LSP position.
func lspPosition(loc *token.Location) protocol.Position {
	if loc == nil {
		return protocol.Position{}
	}
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// locationRange returns the single-line range of width characters starting
// at loc.
func locationRange(loc *token.Location, width int) protocol.Range {
	start := lspPosition(loc)
	end := protocol.Position{
		Line:      start.Line,
		Character: start.Character + safeUint(width),
	}
	return protocol.Range{Start: start, End: end}
}

// wordAtPosition extracts the symbol-like word at the given 0-based LSP
// position from the document content. The cursor can be inside or at the
// end of a word; in both cases the full word is returned along with the
// column where it starts.
func wordAtPosition(content string, line, col int) (string, int) {
	ln, ok := lineAt(content, line)
	if !ok || col < 0 || col > len(ln) {
		return "", col
	}
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	end := col
	for end < len(ln) && isSymbolChar(ln[end]) {
		end++
	}
	return ln[start:end], start
}

// prefixAtPosition is like wordAtPosition but only returns the part of the
// word before the cursor.
func prefixAtPosition(content string, line, col int) string {
	ln, ok := lineAt(content, line)
	if !ok || col < 0 || col > len(ln) {
		return ""
	}
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	return ln[start:col]
}

// inFunctionPosition reports whether the word starting at column start is
// the head of a list, the position where a function name is expected.
func inFunctionPosition(content string, line, start int) bool {
	ln, ok := lineAt(content, line)
	if !ok {
		return false
	}
	i := start - 1
	for i >= 0 && (ln[i] == ' ' || ln[i] == '\t') {
		i--
	}
	return i >= 0 && ln[i] == '('
}

func lineAt(content string, line int) (string, bool) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[line], "\r"), true
}

func isSymbolChar(c byte) bool {
	if c >= 'a' && c <= 'z' {
		return true
	}
	if c >= 'A' && c <= 'Z' {
		return true
	}
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '-', '_', '!', '?', '+', '*', '/', '<', '>', '=', ':', '.', '%', '&', '$', '^':
		return true
	}
	return false
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}
