package lisp

// Version is the language implementation version reported by tools.
const Version = "0.1"

// Interface for a profiler
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session and flush any open spans
	Complete() error
	// Start marks entry into the function described by frame and returns a
	// function that marks its exit.
	Start(frame *CallFrame) func()
}
