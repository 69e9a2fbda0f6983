package profiler_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/elisp/elisptest"
	"github.com/luthersystems/elisp/lisp/x/profiler"
	"github.com/luthersystems/elisp/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallgrindProfiler(t *testing.T) {
	var buf bytes.Buffer
	ev := elisptest.NewEvaluator(t)
	p := profiler.NewCallgrindProfiler(ev.Runtime, profiler.WithoutPrimitives())
	require.NoError(t, p.SetOutput(&buf))
	require.NoError(t, p.Enable())
	assert.Error(t, p.SetOutput(&buf))
	_, err := ev.EvalExpressionsErr(parser.ParseNamed("test.el", tracedSource))
	require.NoError(t, err)
	require.NoError(t, p.Complete())

	out := buf.String()
	assert.Contains(t, out, "version: 1\ncreator: elisp ")
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)\n")
	assert.Contains(t, out, "fl=(1) test.el\nfn=(2) add-it\n")
	assert.Contains(t, out, "fn=(3) add-again\n")
	assert.Contains(t, out, "cfn=(2)\ncalls=1 0 0\n")
	assert.Contains(t, out, "fn=(6) ENTRYPOINT\n")
	assert.Contains(t, out, "cfn=(4)\ncalls=1 0 0\n")
	assert.Contains(t, out, "summary ")
	assert.NotContains(t, out, "fn=(7)")
}

func TestCallgrindProfilerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callgrind.out")
	ev := elisptest.NewEvaluator(t)
	p := profiler.NewCallgrindProfiler(ev.Runtime, profiler.WithDocFilter(), profiler.WithDocLabeler())
	require.NoError(t, p.SetFile(path))
	require.NoError(t, p.Enable())
	_, err := ev.EvalExpressionsErr(parser.ParseNamed("test.el", tracedSource))
	require.NoError(t, err)
	require.NoError(t, p.Complete())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "fn=(2) Add_It\n")
	assert.Contains(t, string(b), "fn=(3) Add_It_Again\n")
	assert.NotContains(t, string(b), "plain")
}

func TestCallgrindProfilerNoOutput(t *testing.T) {
	ev := elisptest.NewEvaluator(t)
	p := profiler.NewCallgrindProfiler(ev.Runtime)
	assert.EqualError(t, p.Enable(), "no output set in profiler")
	assert.False(t, p.IsEnabled())
}
