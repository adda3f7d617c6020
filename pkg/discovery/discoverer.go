package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/hostrecon/pkg/artifact"
	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

// DefaultMinRate is the packet-rate floor of the full-range scan.
const DefaultMinRate = 5000

// Options configures a Discoverer.
type Options struct {
	Binary  string // scanner binary, "nmap" when empty
	MinRate int    // --min-rate value, DefaultMinRate when < 1
}

// Result is the outcome of the discovery stage. Ports is empty both when
// nothing is open and when the scan failed; Err tells the two apart.
type Result struct {
	Ports  PortSet
	Output string
	Err    error
}

// Discoverer is the second pipeline stage.
type Discoverer struct {
	runner   procexec.Runner
	portList *artifact.PortList
	out      *console.Printer
	binary   string
	minRate  int
	logger   zerolog.Logger
}

// New returns a Discoverer that records its findings in portList.
func New(runner procexec.Runner, portList *artifact.PortList, out *console.Printer, opts Options) *Discoverer {
	if opts.Binary == "" {
		opts.Binary = "nmap"
	}
	if opts.MinRate < 1 {
		opts.MinRate = DefaultMinRate
	}
	return &Discoverer{
		runner:   runner,
		portList: portList,
		out:      out,
		binary:   opts.Binary,
		minRate:  opts.MinRate,
		logger:   log.With().Str("component", "discovery").Logger(),
	}
}

// Command builds the full-range scan: SYN scan, no DNS resolution, no host
// discovery, rate floor, very verbose, open ports only, all 65535 ports.
func (d *Discoverer) Command(target string) procexec.Command {
	return procexec.Command{
		Name: d.binary,
		Args: []string{
			"-sS", "-n", "-Pn", "-vvv",
			"--min-rate", strconv.Itoa(d.minRate),
			"-p-", "--open",
			target,
		},
	}
}

// Discover scans every TCP port of target and rewrites the port list.
// Failures are reported to the operator and yield an empty set.
func (d *Discoverer) Discover(ctx context.Context, target string) Result {
	d.out.Info("Scanning all TCP ports on %s...", target)

	if err := d.portList.Truncate(); err != nil {
		d.out.Error("Error preparing %s: %v", d.portList.Path(), err)
		return Result{Err: fmt.Errorf("prepare port list: %w", err)}
	}

	res, err := d.runner.Run(ctx, d.Command(target))
	if err != nil {
		d.out.Error("Error scanning ports: %v", err)
		return Result{Output: res.Combined, Err: fmt.Errorf("launch %s: %w", d.binary, err)}
	}
	if exitErr := res.ExitError(); exitErr != nil {
		d.out.Error("Error scanning ports: %v", exitErr)
		return Result{Output: res.Combined, Err: exitErr}
	}

	ports, err := ParseOpenPorts(strings.NewReader(res.Stdout))
	if err != nil {
		d.out.Error("Error reading scan output: %v", err)
		return Result{Output: res.Combined, Err: err}
	}

	d.logger.Debug().
		Str("target", target).
		Int("open_ports", len(ports)).
		Dur("duration", res.Duration).
		Msg("full-range scan finished")

	if ports.Empty() {
		d.out.Warn("No open ports found on %s.", target)
		return Result{Output: res.Combined}
	}

	if err := d.portList.Write(ports.Tokens()); err != nil {
		d.out.Error("Error writing %s: %v", d.portList.Path(), err)
		return Result{Output: res.Combined, Err: fmt.Errorf("write port list: %w", err)}
	}

	d.out.Success("Open ports found: %s", strings.Join(ports.Tokens(), ", "))
	return Result{Ports: ports, Output: res.Combined}
}
