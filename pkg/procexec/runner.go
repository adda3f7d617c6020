// Package procexec runs external collaborator tools and captures what they print.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors shared by every stage that shells out.
var (
	// ErrToolNotFound indicates the binary could not be resolved on PATH.
	ErrToolNotFound = errors.New("tool not found")

	// ErrNonZeroExit indicates the tool ran but reported failure through its exit status.
	ErrNonZeroExit = errors.New("tool exited with non-zero status")
)

// Command is a single tool invocation.
type Command struct {
	Name string
	Args []string
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// HasArg reports whether arg appears verbatim in the argument list.
func (c Command) HasArg(arg string) bool {
	for _, a := range c.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// ArgAfter returns the argument following flag, or "" when flag is absent or last.
func (c Command) ArgAfter(flag string) string {
	for i, a := range c.Args {
		if a == flag && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string // stdout and stderr interleaved in write order
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError converts a non-zero exit status into an error carrying a short
// stderr excerpt. It returns nil for a successful run.
func (r Result) ExitError() error {
	if r.Success() {
		return nil
	}
	detail := Ellipsis(r.Stderr, 160)
	if detail == "" {
		return fmt.Errorf("%w: status %d", ErrNonZeroExit, r.ExitCode)
	}
	return fmt.Errorf("%w: status %d: %s", ErrNonZeroExit, r.ExitCode, detail)
}

// Runner executes a command and waits for it to exit.
//
// A non-nil error means the process could not be started (or was not
// observed to exit); a process that ran and failed is reported through
// Result.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands as child processes through os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts cmd, blocks until it exits and returns its captured output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	c.Stdout = io.MultiWriter(&stdout, combined)
	c.Stderr = io.MultiWriter(&stderr, combined)

	log.Debug().Str("command", cmd.String()).Msg("starting external tool")

	start := time.Now()
	err := c.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Debug().
				Str("command", cmd.Name).
				Int("exit_code", res.ExitCode).
				Dur("duration", res.Duration).
				Msg("external tool exited")
			return res, nil
		}
		res.ExitCode = -1
		if errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("%w: %s", ErrToolNotFound, cmd.Name)
		}
		return res, fmt.Errorf("run %s: %w", cmd.Name, err)
	}

	log.Debug().
		Str("command", cmd.Name).
		Int("exit_code", 0).
		Dur("duration", res.Duration).
		Msg("external tool exited")
	return res, nil
}

// lockedBuffer serializes writes coming from the stdout and stderr copiers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Ellipsis flattens s onto one line and shortens it to maxLength, appending
// "..." when it had to cut.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")

	if maxLength < 0 {
		return ""
	}
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
