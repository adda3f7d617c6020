package reachability

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

// Checker is the first pipeline stage. It runs one probe and reports the
// verdict to the operator; every failure collapses into "unreachable".
type Checker struct {
	prober Prober
	out    *console.Printer
	logger zerolog.Logger
}

// NewChecker wires a prober to the operator console.
func NewChecker(prober Prober, out *console.Printer) *Checker {
	return &Checker{
		prober: prober,
		out:    out,
		logger: log.With().Str("component", "reachability").Str("prober", prober.Name()).Logger(),
	}
}

// Check probes target once. There are no retries beyond the probe's own
// echo count.
func (c *Checker) Check(ctx context.Context, target string) Result {
	c.out.Info("Pinging %s...", target)

	res := c.prober.Probe(ctx, target)
	switch {
	case res.Reachable:
		c.logger.Debug().Str("target", target).Msg("target answered liveness probe")
		c.out.Success("%s is up. Proceeding with port discovery...", target)
	case res.Err != nil && !isNoAnswer(res.Err):
		c.logger.Debug().Err(res.Err).Str("target", target).Msg("liveness probe failed to run")
		c.out.Error("Error pinging %s: %v", target, res.Err)
	default:
		c.logger.Debug().Err(res.Err).Str("target", target).Msg("target did not answer liveness probe")
		c.out.Warn("%s is not reachable. Skipping port discovery.", target)
	}
	return res
}

// isNoAnswer separates "the probe ran and the host stayed silent" from
// failures to run the probe at all.
func isNoAnswer(err error) bool {
	return errors.Is(err, procexec.ErrNonZeroExit) || errors.Is(err, ErrNoReply)
}
