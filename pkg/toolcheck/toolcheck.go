// Package toolcheck verifies that the external collaborators are installed.
package toolcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/hostrecon/pkg/procexec"
)

// ErrVersionTooOld is reported when a tool is older than the supported minimum.
var ErrVersionTooOld = errors.New("version below supported minimum")

// LookPathFunc resolves a binary name on PATH.
type LookPathFunc func(file string) (string, error)

// Status is the preflight verdict for one tool.
type Status struct {
	Name       string
	Path       string
	Version    string
	MinVersion string
	Err        error
}

// OK reports whether the tool is usable.
func (s Status) OK() bool {
	return s.Err == nil
}

// Checker inspects ping and nmap without running the pipeline.
type Checker struct {
	runner     procexec.Runner
	lookPath   LookPathFunc
	ping       string
	nmap       string
	minVersion string
}

// Options configures a Checker. Empty fields fall back to defaults.
type Options struct {
	Ping           string
	Nmap           string
	MinNmapVersion string
	LookPath       LookPathFunc
}

func New(runner procexec.Runner, opts Options) *Checker {
	if opts.Ping == "" {
		opts.Ping = "ping"
	}
	if opts.Nmap == "" {
		opts.Nmap = "nmap"
	}
	if opts.MinNmapVersion == "" {
		opts.MinNmapVersion = "7.0.0"
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	return &Checker{
		runner:     runner,
		lookPath:   opts.LookPath,
		ping:       opts.Ping,
		nmap:       opts.Nmap,
		minVersion: opts.MinNmapVersion,
	}
}

// Check returns one Status per tool, ping first.
func (c *Checker) Check(ctx context.Context) []Status {
	return []Status{c.checkPing(), c.checkNmap(ctx)}
}

func (c *Checker) checkPing() Status {
	st := Status{Name: c.ping}
	path, err := c.lookPath(c.ping)
	if err != nil {
		st.Err = fmt.Errorf("%w: %s", procexec.ErrToolNotFound, c.ping)
		return st
	}
	st.Path = path
	return st
}

func (c *Checker) checkNmap(ctx context.Context) Status {
	st := Status{Name: c.nmap, MinVersion: c.minVersion}
	path, err := c.lookPath(c.nmap)
	if err != nil {
		st.Err = fmt.Errorf("%w: %s", procexec.ErrToolNotFound, c.nmap)
		return st
	}
	st.Path = path

	res, err := c.runner.Run(ctx, procexec.Command{Name: c.nmap, Args: []string{"--version"}})
	if err != nil {
		st.Err = err
		return st
	}
	if exitErr := res.ExitError(); exitErr != nil {
		st.Err = exitErr
		return st
	}

	v, err := ParseNmapVersion(res.Stdout)
	if err != nil {
		st.Err = err
		return st
	}
	st.Version = v.Original()

	minimum, err := semver.NewVersion(c.minVersion)
	if err != nil {
		st.Err = fmt.Errorf("invalid minimum version %q: %w", c.minVersion, err)
		return st
	}
	if v.LessThan(minimum) {
		st.Err = fmt.Errorf("%w: %s < %s", ErrVersionTooOld, v.Original(), minimum.Original())
	}

	log.Debug().
		Str("tool", c.nmap).
		Str("version", st.Version).
		Str("minimum", c.minVersion).
		Bool("ok", st.OK()).
		Msg("nmap version checked")
	return st
}

// nmapVersionPattern matches the banner line of `nmap --version`, e.g.
// "Nmap version 7.94SVN ( https://nmap.org )".
var nmapVersionPattern = regexp.MustCompile(`Nmap version (\d+\.\d+(?:\.\d+)?)`)

// ParseNmapVersion extracts the numeric release from `nmap --version`
// output. Suffixes such as "SVN" are ignored.
func ParseNmapVersion(output string) (*semver.Version, error) {
	m := nmapVersionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, errors.New("nmap version banner not found")
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("parse nmap version %q: %w", m[1], err)
	}
	return v, nil
}
