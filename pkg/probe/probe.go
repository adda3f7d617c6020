// Package probe runs default scripts and version detection against the
// ports found by discovery.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/discovery"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

// ErrEmptyPortSet is returned when the detailed scan is asked to run
// without any ports.
var ErrEmptyPortSet = errors.New("no ports to probe")

// Options configures a Prober.
type Options struct {
	Binary string // scanner binary, "nmap" when empty
}

// Result is the outcome of the detailed scan. Report holds the scanner's
// combined output whether or not the run succeeded.
type Result struct {
	Report string
	Err    error
}

// Prober is the third pipeline stage.
type Prober struct {
	runner procexec.Runner
	out    *console.Printer
	binary string
	logger zerolog.Logger
}

func New(runner procexec.Runner, out *console.Printer, opts Options) *Prober {
	if opts.Binary == "" {
		opts.Binary = "nmap"
	}
	return &Prober{
		runner: runner,
		out:    out,
		binary: opts.Binary,
		logger: log.With().Str("component", "probe").Logger(),
	}
}

// Command builds the detailed scan over a comma-joined port list.
func (p *Prober) Command(target string, ports discovery.PortSet) procexec.Command {
	return procexec.Command{
		Name: p.binary,
		Args: []string{"-sC", "-sV", "-v", "-p", ports.Join(","), target},
	}
}

// Probe runs the detailed scan and relays its output verbatim.
func (p *Prober) Probe(ctx context.Context, target string, ports discovery.PortSet) Result {
	if ports.Empty() {
		return Result{Err: ErrEmptyPortSet}
	}

	list := ports.Join(",")
	p.out.Info("Running detailed scan (-sC -sV) on ports %s...", list)

	res, err := p.runner.Run(ctx, p.Command(target, ports))
	if err != nil {
		p.out.Error("Error running detailed scan: %v", err)
		return Result{Report: res.Combined, Err: fmt.Errorf("launch %s: %w", p.binary, err)}
	}

	if res.Combined != "" {
		p.out.Raw(console.LevelSuccess, res.Combined)
	}

	p.logger.Debug().
		Str("target", target).
		Str("ports", list).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Msg("detailed scan finished")

	if exitErr := res.ExitError(); exitErr != nil {
		p.out.Error("Error running detailed scan: %v", exitErr)
		return Result{Report: res.Combined, Err: exitErr}
	}
	return Result{Report: res.Combined}
}
