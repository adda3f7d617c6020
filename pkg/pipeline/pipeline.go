// Package pipeline sequences the reachability, discovery and probe stages
// for one target.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/discovery"
	"github.com/vulntor/hostrecon/pkg/logging"
	"github.com/vulntor/hostrecon/pkg/probe"
	"github.com/vulntor/hostrecon/pkg/reachability"
)

// ReachabilityStage gates the run on a liveness probe.
type ReachabilityStage interface {
	Check(ctx context.Context, target string) reachability.Result
}

// DiscoveryStage enumerates open ports.
type DiscoveryStage interface {
	Discover(ctx context.Context, target string) discovery.Result
}

// ProbeStage runs the detailed scan over a non-empty port set.
type ProbeStage interface {
	Probe(ctx context.Context, target string, ports discovery.PortSet) probe.Result
}

type ProgressSink interface {
	OnEvent(ProgressEvent)
}

type ProgressEvent struct {
	RunID     string
	Target    string
	From      State
	To        State
	Message   string
	Timestamp time.Time
}

// Outcome is everything a finished run produced. Stage results that were
// never reached hold their zero value.
type Outcome struct {
	RunID        string
	Target       string
	State        State
	Reachability reachability.Result
	Discovery    discovery.Result
	Probe        probe.Result
	Started      time.Time
	Elapsed      time.Duration
}

// Ports returns the open ports discovered in this run.
func (o Outcome) Ports() discovery.PortSet {
	return o.Discovery.Ports
}

// Summary builds the console recap for the run.
func (o Outcome) Summary(artifactPath string) console.Summary {
	return console.Summary{
		RunID:    o.RunID,
		Target:   o.Target,
		State:    o.State.Label(),
		Ports:    o.Ports().Tokens(),
		Artifact: artifactPath,
		Elapsed:  o.Elapsed,
	}
}

// Pipeline runs the three stages in order with early exit.
type Pipeline struct {
	checker    ReachabilityStage
	discoverer DiscoveryStage
	prober     ProbeStage
	out        *console.Printer
	sink       ProgressSink
	now        func() time.Time
	newID      func() string
}

func New(checker ReachabilityStage, discoverer DiscoveryStage, prober ProbeStage, out *console.Printer) *Pipeline {
	return &Pipeline{
		checker:    checker,
		discoverer: discoverer,
		prober:     prober,
		out:        out,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// WithProgressSink attaches a sink to receive state transitions.
func (p *Pipeline) WithProgressSink(sink ProgressSink) *Pipeline {
	p.sink = sink
	return p
}

// Run executes one pass over target. It never returns an error: every stage
// failure ends in a terminal state with the diagnostic kept in the Outcome.
func (p *Pipeline) Run(ctx context.Context, target string) (o Outcome) {
	o = Outcome{
		RunID:   p.newID(),
		Target:  target,
		State:   StateStart,
		Started: p.now(),
	}
	logger := logging.NewLogger("pipeline", zerolog.GlobalLevel()).With().
		Str("run_id", o.RunID).
		Str("target", target).
		Logger()

	defer func() {
		o.Elapsed = p.now().Sub(o.Started)
		if !o.State.Terminal() {
			logger.Error().Str("state", string(o.State)).Msg("run stopped before a terminal state")
			return
		}
		logger.Debug().Str("state", string(o.State)).Dur("elapsed", o.Elapsed).Msg("run finished")
	}()

	p.advance(&o, StateChecking, "liveness probe started")
	o.Reachability = p.checker.Check(ctx, target)
	if !o.Reachability.Reachable {
		p.advance(&o, StateUnreachable, errMessage(o.Reachability.Err))
		return o
	}
	p.advance(&o, StateReachable, "")

	p.advance(&o, StateDiscovering, "full-range scan started")
	o.Discovery = p.discoverer.Discover(ctx, target)
	if o.Ports().Empty() {
		p.advance(&o, StateNoPortsFound, errMessage(o.Discovery.Err))
		p.out.Info("No open ports to scan in detail.")
		return o
	}
	p.advance(&o, StatePortsFound, o.Ports().Join(","))

	p.advance(&o, StateProbing, "detailed scan started")
	o.Probe = p.prober.Probe(ctx, target, o.Ports())
	p.advance(&o, StateDone, errMessage(o.Probe.Err))
	return o
}

func (p *Pipeline) advance(o *Outcome, to State, msg string) {
	from := o.State
	if !CanTransition(from, to) {
		panic("pipeline: illegal transition " + string(from) + " -> " + string(to))
	}
	o.State = to
	if p.sink == nil {
		return
	}
	p.sink.OnEvent(ProgressEvent{
		RunID:     o.RunID,
		Target:    o.Target,
		From:      from,
		To:        to,
		Message:   msg,
		Timestamp: p.now(),
	})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// LogSink writes every transition to a zerolog logger at debug level.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnEvent(ev ProgressEvent) {
	e := s.logger.Debug().
		Str("run_id", ev.RunID).
		Str("target", ev.Target).
		Str("from", string(ev.From)).
		Str("to", string(ev.To))
	if ev.Message != "" {
		e = e.Str("detail", ev.Message)
	}
	e.Msg("pipeline transition")
}
