// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/lisp/x/profiler"
	"github.com/sirupsen/logrus"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Trace modes accepted by the --trace flag.
const (
	traceNone       = "none"
	traceOtel       = "otel"
	traceOpenCensus = "opencensus"
	traceCallgrind  = "callgrind"
	tracePprof      = "pprof"
)

// defaultTraceFile receives callgrind and pprof output.
const defaultTraceFile = "elisp.prof"

// startTracing installs the profiler named by mode on ev.  Completed spans
// are logged at info level.  The callgrind and pprof modes write to file.
// The returned function flushes open spans and closes the output.
func startTracing(ctx context.Context, ev *lisp.Evaluator, mode, file string, log logrus.FieldLogger) (func() error, error) {
	if file == "" {
		file = defaultTraceFile
	}
	switch mode {
	case "", traceNone:
		return func() error { return nil }, nil
	case traceOtel:
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(&spanLogger{log: log}),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		p := profiler.NewOpenTelemetryAnnotator(ev.Runtime, ctx, profiler.WithoutPrimitives())
		if err := p.Enable(); err != nil {
			return nil, err
		}
		return func() error {
			if err := p.Complete(); err != nil {
				return err
			}
			return tp.Shutdown(ctx)
		}, nil
	case traceOpenCensus:
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		exp := &ocSpanLogger{log: log}
		octrace.RegisterExporter(exp)
		p := profiler.NewOpenCensusAnnotator(ev.Runtime, ctx, profiler.WithoutPrimitives())
		if err := p.Enable(); err != nil {
			octrace.UnregisterExporter(exp)
			return nil, err
		}
		return func() error {
			defer octrace.UnregisterExporter(exp)
			return p.Complete()
		}, nil
	case traceCallgrind:
		p := profiler.NewCallgrindProfiler(ev.Runtime, profiler.WithoutPrimitives())
		if err := p.SetFile(file); err != nil {
			return nil, err
		}
		if err := p.Enable(); err != nil {
			return nil, err
		}
		log.WithField("file", file).Info("writing callgrind profile")
		return p.Complete, nil
	case tracePprof:
		f, err := os.Create(file) //#nosec G304
		if err != nil {
			return nil, err
		}
		p := profiler.NewPprofAnnotator(ev.Runtime, ctx)
		if err := p.Enable(); err != nil {
			f.Close() //nolint:errcheck
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close() //nolint:errcheck
			return nil, err
		}
		log.WithField("file", file).Info("writing cpu profile")
		return func() error {
			pprof.StopCPUProfile()
			if err := p.Complete(); err != nil {
				f.Close() //nolint:errcheck
				return err
			}
			return f.Close()
		}, nil
	default:
		return nil, fmt.Errorf("invalid trace mode: %q", mode)
	}
}

// spanLogger is an opentelemetry SpanExporter that logs each span.
type spanLogger struct {
	log logrus.FieldLogger
}

var _ sdktrace.SpanExporter = &spanLogger{}

func (e *spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := logrus.Fields{
			"span":     span.Name(),
			"duration": span.EndTime().Sub(span.StartTime()),
		}
		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.log.WithFields(fields).Info("span")
	}
	return nil
}

func (e *spanLogger) Shutdown(context.Context) error {
	return nil
}

// ocSpanLogger is an opencensus Exporter that logs each span.
type ocSpanLogger struct {
	log logrus.FieldLogger
}

func (e *ocSpanLogger) ExportSpan(sd *octrace.SpanData) {
	fields := logrus.Fields{
		"span":     sd.Name,
		"duration": sd.EndTime.Sub(sd.StartTime),
	}
	for _, ann := range sd.Annotations {
		for k, v := range ann.Attributes {
			fields[k] = v
		}
	}
	e.log.WithFields(fields).Info("span")
}
