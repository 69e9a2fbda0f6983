package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/elisp/diagnostic"
	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReplWithString(t *testing.T, input string) (string, error) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck
		_, _ = io.WriteString(inW, input)
	}()

	errc := make(chan error, 1)
	go func() {
		errc <- RunRepl(DefaultPrompt,
			WithStdin(inR),
			WithStdout(outW),
			WithStderr(outW),
			WithHistoryFile(""),
			WithColor(diagnostic.ColorNever))
		inR.Close()  //nolint:errcheck
		outW.Close() //nolint:errcheck
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck

	return output.String(), <-errc
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".elisp_history")

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "new history file should have mode 0600")
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".elisp_history")

	err := os.WriteFile(histFile, []byte("some history"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing history file should be restricted to 0600")

	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "some history", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	ensureHistoryFilePermissions("")
}

func TestRunRepl(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		expected   []string
		unexpected []string
	}{
		{
			name:     "Simple Addition",
			input:    "(+ 1 1)\n",
			expected: []string{"2\n"},
		},
		{
			name:     "Error",
			input:    "fnord\n(+ 2 3)\n",
			expected: []string{"error: undefined-variable: fnord", "5\n"},
		},
		{
			name:     "Continuation",
			input:    "(+ 1\n\n   2)\n",
			expected: []string{"3\n"},
		},
		{
			name:     "Two expressions on a line",
			input:    "(defvar x 4) (* x x)\n",
			expected: []string{"nil\n", "16\n"},
		},
		{
			name:       "Quit",
			input:      "(print \"a\")\nQuit\n(print \"b\")\n",
			expected:   []string{"a\n"},
			unexpected: []string{"b\n"},
		},
		{
			name:     "Invalid UTF-8",
			input:    "(+ 1 \xff)\n(+ 2 3)\n",
			expected: []string{"invalid utf-8 sequence in source text", "5\n"},
		},
		{
			name:     "Unterminated",
			input:    "(+ 1\n",
			expected: []string{"error: unexpected end of input"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := runReplWithString(t, tc.input)
			require.NoError(t, err)
			for _, s := range tc.expected {
				assert.Contains(t, got, s)
			}
			for _, s := range tc.unexpected {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestCurrentPrompt(t *testing.T) {
	ev := lisp.NewEvaluator()
	p := rdparser.NewInteractive(nil)
	p.SetPrompts(DefaultPrompt, DefaultContinuation)
	assert.Equal(t, DefaultPrompt, currentPrompt(ev, p))

	ev.Runtime.HidePrompt = true
	assert.Equal(t, "", currentPrompt(ev, p))
}

func TestIsQuit(t *testing.T) {
	assert.True(t, isQuit([]byte("q")))
	assert.True(t, isQuit([]byte("QUIT")))
	assert.False(t, isQuit([]byte("(quote x)")))
	assert.False(t, isQuit(nil))
}
