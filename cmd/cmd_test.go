// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/elisp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := RunCommand(WithOutput(&stdout, &stderr))
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunExpressions(t *testing.T) {
	stdout, stderr, err := runCmd(t, "-p", "-e", "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout)
	assert.Empty(t, stderr)

	stdout, _, err = runCmd(t, "-p", "-e", `(print "hi")`, "-e", "(setq x 4)", "-e", "(* x x)")
	require.NoError(t, err)
	assert.Equal(t, "hi\nnil\n4\n16\n", stdout)

	stdout, _, err = runCmd(t, "-e", `(print "side effect")`, "-e", "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, "side effect\n", stdout)
}

func TestRunFiles(t *testing.T) {
	lib := writeSource(t, "lib.el", `(defun square (x)
  "Return x multiplied by itself."
  (* x x))
`)
	stdout, stderr, err := runCmd(t, "-p", lib, "-e", "(square 7)")
	require.NoError(t, err)
	assert.Equal(t, "nil\n49\n", stdout)
	assert.Empty(t, stderr)
}

func TestRunErrors(t *testing.T) {
	t.Run("eval error", func(t *testing.T) {
		stdout, stderr, err := runCmd(t, "-p", "-e", "(+ 1 2)", "-e", "(car 5)", "-e", "(+ 3 4)")
		assert.ErrorIs(t, err, errReported)
		assert.Equal(t, "3\n", stdout)
		assert.Contains(t, stderr, "error: wrong-type-argument")
		assert.Contains(t, stderr, "--> -e[1]:1:1")
		assert.Contains(t, stderr, "(car 5)")
	})
	t.Run("reader error", func(t *testing.T) {
		path := writeSource(t, "bad.el", "(print \"ran\")\n(defun f (x)\n")
		stdout, stderr, err := runCmd(t, path)
		assert.ErrorIs(t, err, errReported)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "unexpected end of input")
		assert.Contains(t, stderr, path+":2:1")
	})
	t.Run("no input", func(t *testing.T) {
		_, _, err := runCmd(t)
		assert.EqualError(t, err, "no files or expressions to run")
	})
	t.Run("missing file", func(t *testing.T) {
		_, _, err := runCmd(t, filepath.Join(t.TempDir(), "missing.el"))
		assert.Error(t, err)
	})
	t.Run("bad trace mode", func(t *testing.T) {
		_, _, err := runCmd(t, "--trace", "bogus", "-e", "1")
		assert.EqualError(t, err, `invalid trace mode: "bogus"`)
	})
}

func TestRunMaxSteps(t *testing.T) {
	run := func(args ...string) (string, string, error) {
		var stdout, stderr bytes.Buffer
		cmd := RunCommand(WithOutput(&stdout, &stderr), WithEvaluatorOptions(lisp.WithMaxSteps(20)))
		cmd.SetArgs(args)
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		err := cmd.Execute()
		return stdout.String(), stderr.String(), err
	}

	forms := strings.Repeat("(+ 1 2) ", 10)
	stdout, _, err := run("-p", "-e", forms, "-e", forms)
	require.NoError(t, err)
	assert.Equal(t, "3\n3\n", stdout)

	_, stderr, err := run("-e", "(while t nil)")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "step-limit-exceeded")
}

func TestRunTrace(t *testing.T) {
	for _, mode := range []string{traceNone, traceOtel, traceOpenCensus} {
		t.Run(mode, func(t *testing.T) {
			stdout, _, err := runCmd(t, "--trace", mode, "-p",
				"-e", "(defun sq (x) (* x x))", "-e", "(sq 3)")
			require.NoError(t, err)
			assert.Equal(t, "nil\n9\n", stdout)
		})
	}
}

func TestRunProfile(t *testing.T) {
	t.Run("callgrind", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "callgrind.out")
		stdout, _, err := runCmd(t, "--trace", traceCallgrind, "--trace-file", out, "-p",
			"-e", "(defun sq (x) (* x x))", "-e", "(sq 3)")
		require.NoError(t, err)
		assert.Equal(t, "nil\n9\n", stdout)
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(b), "fn=(2) sq\n")
		assert.Contains(t, string(b), "summary ")
	})
	t.Run("pprof", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "cpu.prof")
		stdout, _, err := runCmd(t, "--trace", tracePprof, "--trace-file", out, "-p", "-e", "(+ 1 2)")
		require.NoError(t, err)
		assert.Equal(t, "3\n", stdout)
		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})
}

func docCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := DocCommand(WithOutput(&stdout, &stderr))
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestDocBuiltins(t *testing.T) {
	out, err := docCmd(t, "car")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "primitive: (car list)\n  Return the first element"), out)

	out, err = docCmd(t, "setq")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "special form: (setq &rest pairs)\n"), out)

	out, err = docCmd(t, "-w", "30", "setq")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		assert.True(t, strings.HasPrefix(line, "  "), line)
	}

	_, err = docCmd(t, "no-such-thing")
	assert.EqualError(t, err, "no documentation for no-such-thing")
}

func TestDocSourceFile(t *testing.T) {
	lib := writeSource(t, "lib.el", `(defvar limit 10 "Upper bound.")
(defun square (x)
  "Return x multiplied by itself."
  (* x x))
(defun undocumented () nil)
`)
	out, err := docCmd(t, "-f", lib, "square")
	require.NoError(t, err)
	assert.Equal(t, "function: (square x)\n  Return x multiplied by itself.\n", out)

	out, err = docCmd(t, "-f", lib, "limit")
	require.NoError(t, err)
	assert.Equal(t, "variable: limit\n  Upper bound.\n", out)

	out, err = docCmd(t, "-f", lib, "undocumented")
	require.NoError(t, err)
	assert.Equal(t, "function: (undocumented)\n  Not documented.\n", out)
}

func TestDocList(t *testing.T) {
	out, err := docCmd(t, "-l", "-w", "40")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 20)
	var names []string
	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), 40, line)
		names = append(names, strings.Fields(line)[0])
	}
	assert.Contains(t, names, "car")
	assert.Contains(t, names, "defvar")
	assert.IsNonDecreasing(t, names)
}
