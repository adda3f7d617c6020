// Package reachability implements the liveness gate that runs before any port scan.
package reachability

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/go-ping/ping"

	"github.com/vulntor/hostrecon/pkg/config"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

// DefaultCount is the number of echo requests sent per probe.
const DefaultCount = 4

// ErrNoReply indicates the in-process prober sent its requests and heard nothing back.
var ErrNoReply = errors.New("no echo replies")

// Result is the outcome of one liveness probe.
type Result struct {
	Reachable bool
	Output    string // raw probe output, kept for diagnostics
	Err       error  // why the target counts as unreachable, if it does
}

// Prober sends a liveness probe to a single target.
type Prober interface {
	Name() string
	Probe(ctx context.Context, target string) Result
}

// CommandProber runs the system ping binary and trusts its exit status.
type CommandProber struct {
	runner procexec.Runner
	binary string
	count  int
}

// NewCommandProber returns a prober running binary through runner.
func NewCommandProber(runner procexec.Runner, binary string, count int) *CommandProber {
	if binary == "" {
		binary = "ping"
	}
	if count < 1 {
		count = DefaultCount
	}
	return &CommandProber{runner: runner, binary: binary, count: count}
}

func (p *CommandProber) Name() string { return "exec" }

// Command builds the ping invocation for target.
func (p *CommandProber) Command(target string) procexec.Command {
	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}
	return procexec.Command{
		Name: p.binary,
		Args: []string{countFlag, strconv.Itoa(p.count), target},
	}
}

// Probe reports the target reachable iff ping exits with status zero.
func (p *CommandProber) Probe(ctx context.Context, target string) Result {
	res, err := p.runner.Run(ctx, p.Command(target))
	if err != nil {
		return Result{Output: res.Combined, Err: fmt.Errorf("launch %s: %w", p.binary, err)}
	}
	if exitErr := res.ExitError(); exitErr != nil {
		return Result{Output: res.Combined, Err: exitErr}
	}
	return Result{Reachable: true, Output: res.Combined}
}

// Pinger is the subset of *ping.Pinger used by ICMPProber.
type Pinger interface {
	Run() error
	Stop()
	Statistics() *ping.Statistics
	SetPrivileged(bool)
}

type pingerFactoryFunc func(target string, count int, timeout time.Duration) (Pinger, error)

// ICMPProber sends echo requests in-process through go-ping.
type ICMPProber struct {
	count         int
	timeout       time.Duration
	privileged    bool
	pingerFactory pingerFactoryFunc
}

// NewICMPProber returns a go-ping backed prober. timeout bounds the whole
// probe; without it the library waits for replies indefinitely.
func NewICMPProber(count int, timeout time.Duration, privileged bool) *ICMPProber {
	if count < 1 {
		count = DefaultCount
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ICMPProber{
		count:      count,
		timeout:    timeout,
		privileged: privileged,
		pingerFactory: func(target string, count int, timeout time.Duration) (Pinger, error) {
			p, err := ping.NewPinger(target)
			if err != nil {
				return nil, err
			}
			p.Count = count
			p.Timeout = timeout
			return p, nil
		},
	}
}

func (p *ICMPProber) Name() string { return "icmp" }

// Probe reports the target reachable when at least one reply arrived,
// which is the rule the system ping applies to its own exit status.
func (p *ICMPProber) Probe(ctx context.Context, target string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: fmt.Errorf("icmp probe panicked: %v", r)}
		}
	}()

	pinger, err := p.pingerFactory(target, p.count, p.timeout)
	if err != nil {
		return Result{Err: fmt.Errorf("resolve %s: %w", target, err)}
	}
	pinger.SetPrivileged(p.privileged)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return Result{Err: fmt.Errorf("icmp probe: %w", err)}
	}

	stats := pinger.Statistics()
	if stats == nil {
		return Result{Err: errors.New("icmp probe returned no statistics")}
	}
	out := fmt.Sprintf("%d packets transmitted, %d received, %.0f%% packet loss",
		stats.PacketsSent, stats.PacketsRecv, stats.PacketLoss)
	if stats.PacketsRecv == 0 {
		return Result{Output: out, Err: fmt.Errorf("%w from %s", ErrNoReply, target)}
	}
	return Result{Reachable: true, Output: out}
}

// FromConfig builds the prober selected by cfg.Method.
func FromConfig(cfg config.ReachabilityConfig, pingBinary string, runner procexec.Runner) (Prober, error) {
	switch cfg.Method {
	case "", "exec":
		return NewCommandProber(runner, pingBinary, cfg.Count), nil
	case "icmp":
		return NewICMPProber(cfg.Count, cfg.Timeout, cfg.Privileged), nil
	default:
		return nil, fmt.Errorf("unknown reachability method %q", cfg.Method)
	}
}
