package profiler_test

import (
	"context"
	"testing"

	"github.com/luthersystems/elisp/elisptest"
	"github.com/luthersystems/elisp/lisp/x/profiler"
	"github.com/luthersystems/elisp/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newExporter(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, len(spans))
	for i := range spans {
		names[i] = spans[i].Name
	}
	return names
}

func TestNewOpenTelemetryAnnotator(t *testing.T) {
	exporter := newExporter(t)
	ev := elisptest.NewEvaluator(t)
	ppa := profiler.NewOpenTelemetryAnnotator(ev.Runtime, context.Background())
	require.NoError(t, ppa.Enable())
	assert.Same(t, ppa, ev.Runtime.Profiler)
	assert.Error(t, ppa.Enable())

	_, err := ev.EvalExpressionsErr(parser.ParseNamed("test.el", tracedSource))
	require.NoError(t, err)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	assert.Equal(t, []string{"+", "add-it", "add-again", "plain"}, spanNames(spans))
	assert.Contains(t, spans[1].Attributes, semconv.CodeFunction("add-it"))
	assert.Contains(t, spans[1].Attributes, semconv.CodeFilepath("test.el"))
	assert.Contains(t, spans[1].Attributes, semconv.CodeLineNumber(2))
	for i := 0; i < len(spans)-1; i++ {
		assert.Equal(t, spans[i+1].SpanContext.SpanID(), spans[i].Parent.SpanID(), "span %d", i)
	}
}

func TestNewOpenTelemetryAnnotatorSkip(t *testing.T) {
	exporter := newExporter(t)
	ev := elisptest.NewEvaluator(t)
	ppa := profiler.NewOpenTelemetryAnnotator(ev.Runtime, context.Background(),
		profiler.WithDocFilter(),
		profiler.WithDocLabeler())
	require.NoError(t, ppa.Enable())
	_, err := ev.EvalExpressionsErr(parser.ParseNamed("test.el", tracedSource))
	require.NoError(t, err)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2, "Expected selective spans")
	assert.Equal(t, "Add_It", spans[0].Name, "Expected custom label")
	assert.Equal(t, "Add_It_Again", spans[1].Name, "Expected custom label")
	assert.Contains(t, spans[0].Attributes, semconv.CodeFunction("add-it"))
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestNewOpenTelemetryAnnotatorError(t *testing.T) {
	exporter := newExporter(t)
	ev := elisptest.NewEvaluator(t)
	ppa := profiler.NewOpenTelemetryAnnotator(ev.Runtime, context.Background(), profiler.WithoutPrimitives())
	require.NoError(t, ppa.Enable())
	_, err := ev.EvalExpressionsErr(parser.Parse(`(defun boom (x) (car x)) (defun outer () (boom 1)) (outer)`))
	require.Error(t, err)

	assert.Equal(t, []string{"boom", "outer"}, spanNames(exporter.GetSpans()))
}
