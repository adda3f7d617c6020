package probe

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/discovery"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

const serviceReport = `PORT   STATE SERVICE VERSION
22/tcp open  ssh     OpenSSH 9.6p1 Ubuntu 3ubuntu13 (Ubuntu Linux; protocol 2.0)
80/tcp open  http    nginx 1.24.0
|_http-title: Welcome to nginx!
`

func TestProber_Command(t *testing.T) {
	p := New(procexec.NewRecorder(), console.New(&bytes.Buffer{}, true), Options{})
	cmd := p.Command("10.0.0.5", discovery.PortSet{22, 80, 443})

	assert.Equal(t, "nmap", cmd.Name)
	assert.Equal(t, []string{"-sC", "-sV", "-v", "-p", "22,80,443", "10.0.0.5"}, cmd.Args)
}

func TestProber_Probe(t *testing.T) {
	rec := procexec.NewRecorder().Respond("nmap", procexec.Result{Stdout: serviceReport, Combined: serviceReport})
	var out bytes.Buffer
	p := New(rec, console.New(&out, true), Options{})

	res := p.Probe(context.Background(), "10.0.0.5", discovery.PortSet{22, 80})

	require.NoError(t, res.Err)
	assert.Equal(t, serviceReport, res.Report)
	assert.Equal(t, "Running detailed scan (-sC -sV) on ports 22,80...\n"+serviceReport, out.String())

	calls := rec.CallsTo("nmap")
	require.Len(t, calls, 1)
	assert.Equal(t, "22,80", calls[0].ArgAfter("-p"))
}

func TestProber_EmptyPortSetNeverRuns(t *testing.T) {
	rec := procexec.NewRecorder().Respond("nmap", procexec.Result{})
	var out bytes.Buffer
	p := New(rec, console.New(&out, true), Options{})

	res := p.Probe(context.Background(), "10.0.0.5", nil)

	assert.ErrorIs(t, res.Err, ErrEmptyPortSet)
	assert.Empty(t, rec.Calls())
	assert.Empty(t, out.String())
}

func TestProber_NonZeroExitStillRelaysOutput(t *testing.T) {
	rec := procexec.NewRecorder().Respond("nmap", procexec.Result{
		ExitCode: 2,
		Combined: "Starting Nmap\nNSE: failed to initialize the script engine\n",
		Stderr:   "NSE: failed to initialize the script engine\n",
	})
	var out bytes.Buffer
	p := New(rec, console.New(&out, true), Options{})

	res := p.Probe(context.Background(), "10.0.0.5", discovery.PortSet{22})

	assert.ErrorIs(t, res.Err, procexec.ErrNonZeroExit)
	assert.Contains(t, res.Report, "failed to initialize")
	assert.Contains(t, out.String(), "Starting Nmap\n")
	assert.Contains(t, out.String(), "Error running detailed scan:")
}

func TestProber_ToolMissing(t *testing.T) {
	rec := procexec.NewRecorder()
	var out bytes.Buffer
	p := New(rec, console.New(&out, true), Options{Binary: "nmap"})

	res := p.Probe(context.Background(), "10.0.0.5", discovery.PortSet{22})

	assert.ErrorIs(t, res.Err, procexec.ErrToolNotFound)
	assert.Contains(t, out.String(), "Error running detailed scan: tool not found")
}
