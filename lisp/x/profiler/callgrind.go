package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/luthersystems/elisp/lisp"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// CallgrindProfiler builds Callgrind files, in the manner of XDebug.  The
// resulting files can be opened in KCacheGrind or QCacheGrind.
type CallgrindProfiler struct {
	profiler
	mu         sync.Mutex
	w          io.Writer
	closer     io.Closer
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	current    *callRef
}

var _ lisp.Profiler = &CallgrindProfiler{}

// NewCallgrindProfiler returns a profiler that records the time and memory
// spent in each function application.  An output must be set with
// SetOutput or SetFile before it is enabled.
func NewCallgrindProfiler(runtime *lisp.Runtime, opts ...Option) *CallgrindProfiler {
	p := &CallgrindProfiler{
		profiler: profiler{
			runtime: runtime,
		},
	}
	p.applyConfigs(opts...)
	return p
}

// callRef is an active or finished application.
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	memory      uint64
	file        string
	line        int
}

// SetOutput directs the profile to w.
func (p *CallgrindProfiler) SetOutput(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	p.w = w
	p.closer = nil
	return nil
}

// SetFile creates filename and directs the profile to it.  Complete closes
// the file.
func (p *CallgrindProfiler) SetFile(filename string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	f, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	p.w = f
	p.closer = f
	return nil
}

func (p *CallgrindProfiler) Enable() error {
	p.mu.Lock()
	if p.enabled {
		p.mu.Unlock()
		return errors.New("profiler already enabled")
	}
	if p.w == nil {
		p.mu.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.w}
	w.printf("version: 1\ncreator: elisp %s (Go %s)\n", lisp.Version, runtime.Version())
	w.print("cmd: Eval\npart: 1\npositions: line\n\n")
	w.print("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.mu.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.current = nil
	p.runtime.Profiler = p
	p.mu.Unlock()
	p.push("ENTRYPOINT", "-", 0)
	return p.profiler.Enable()
}

func (p *CallgrindProfiler) Complete() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := p.pop()
	if p.writeErr != nil {
		return p.writeErr
	}
	if ref == nil {
		return errors.New("profiler not enabled")
	}
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.w}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	p.writeCalls(w, ref)
	w.print("\n")
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", time.Since(p.startTime).Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func (p *CallgrindProfiler) Start(frame *lisp.CallFrame) func() {
	if p.skipTrace(frame) {
		return func() {}
	}
	label, _ := p.prettyFunName(frame)
	file, line := getSource(frame)
	p.push(label, file, line)
	return func() {
		p.end(label, file, line)
	}
}

// getRef returns the compressed name for a file or function.  The first
// use of a name defines its number.
func (p *CallgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *CallgrindProfiler) push(name, file string, line int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := &callRef{
		name: name,
		file: file,
		line: line,
		prev: p.current,
	}
	if p.current != nil {
		p.current.children = append(p.current.children, ref)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.startMemory = ms.TotalAlloc
	ref.start = time.Now()
	p.current = ref
}

// pop must be called with p.mu held.
func (p *CallgrindProfiler) pop() *callRef {
	ref := p.current
	if ref != nil {
		p.current = ref.prev
	}
	return ref
}

func (p *CallgrindProfiler) end(name, file string, line int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := p.pop()
	if ref == nil || p.writeErr != nil {
		return
	}
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.memory = ms.TotalAlloc - ref.startMemory

	w := &errWriter{w: p.w}
	w.printf("fl=%s\n", p.getRef(file))
	w.printf("fn=%s\n", p.getRef(name))
	w.printf("%d %d %d\n", line, ref.duration, ref.memory)
	p.writeCalls(w, ref)
	w.print("\n")
	p.writeErr = w.err
}

// writeCalls writes the applications made directly by ref.
func (p *CallgrindProfiler) writeCalls(w *errWriter, ref *callRef) {
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, entry.memory)
	}
}
