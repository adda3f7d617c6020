package procexec

import (
	"context"
	"fmt"
	"sync"
)

// HandlerFunc produces a canned result for a recorded command.
type HandlerFunc func(cmd Command) (Result, error)

// Recorder is an in-memory Runner used by tests. It records every command
// it receives and answers through per-binary handlers; a command whose
// binary has no handler fails as if the tool were not installed.
type Recorder struct {
	mu       sync.Mutex
	calls    []Command
	handlers map[string]HandlerFunc
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[string]HandlerFunc)}
}

// On registers the handler for commands whose Name equals name.
func (r *Recorder) On(name string, fn HandlerFunc) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
	return r
}

// Respond registers a handler that always returns res.
func (r *Recorder) Respond(name string, res Result) *Recorder {
	return r.On(name, func(Command) (Result, error) { return res, nil })
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, cmd Command) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Command{Name: cmd.Name, Args: append([]string(nil), cmd.Args...)})
	fn := r.handlers[cmd.Name]
	r.mu.Unlock()

	if fn == nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrToolNotFound, cmd.Name)
	}
	return fn(cmd)
}

// Calls returns every command received so far, in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the recorded commands for one binary.
func (r *Recorder) CallsTo(name string) []Command {
	var out []Command
	for _, c := range r.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
