package reachability

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/go-ping/ping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/hostrecon/pkg/config"
	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/procexec"
)

func TestCommandProber_Command(t *testing.T) {
	p := NewCommandProber(procexec.NewRecorder(), "", 0)
	cmd := p.Command("10.0.0.5")

	assert.Equal(t, "ping", cmd.Name)
	if runtime.GOOS == "windows" {
		assert.Equal(t, []string{"-n", "4", "10.0.0.5"}, cmd.Args)
	} else {
		assert.Equal(t, []string{"-c", "4", "10.0.0.5"}, cmd.Args)
	}
}

func TestCommandProber_Probe(t *testing.T) {
	tests := []struct {
		name          string
		handler       procexec.HandlerFunc
		wantReachable bool
		wantErrIs     error
	}{
		{
			name: "exit zero",
			handler: func(procexec.Command) (procexec.Result, error) {
				return procexec.Result{Combined: "4 packets transmitted, 4 received"}, nil
			},
			wantReachable: true,
		},
		{
			name: "non-zero exit",
			handler: func(procexec.Command) (procexec.Result, error) {
				return procexec.Result{ExitCode: 1, Combined: "4 packets transmitted, 0 received"}, nil
			},
			wantErrIs: procexec.ErrNonZeroExit,
		},
		{
			name: "launch failure",
			handler: func(procexec.Command) (procexec.Result, error) {
				return procexec.Result{ExitCode: -1}, procexec.ErrToolNotFound
			},
			wantErrIs: procexec.ErrToolNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := procexec.NewRecorder().On("ping", tt.handler)
			res := NewCommandProber(rec, "ping", 4).Probe(context.Background(), "10.0.0.5")

			assert.Equal(t, tt.wantReachable, res.Reachable)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, res.Err, tt.wantErrIs)
			} else {
				assert.NoError(t, res.Err)
			}
			require.Len(t, rec.CallsTo("ping"), 1)
		})
	}
}

type fakePinger struct {
	stats      *ping.Statistics
	runErr     error
	privileged bool
	stopped    bool
	panicOnRun bool
}

func (f *fakePinger) Run() error {
	if f.panicOnRun {
		panic("socket exploded")
	}
	return f.runErr
}
func (f *fakePinger) Stop()                        { f.stopped = true }
func (f *fakePinger) Statistics() *ping.Statistics { return f.stats }
func (f *fakePinger) SetPrivileged(v bool)         { f.privileged = v }

func newTestICMPProber(f *fakePinger, factoryErr error) (*ICMPProber, *[]int) {
	counts := &[]int{}
	p := NewICMPProber(4, time.Second, true)
	p.pingerFactory = func(target string, count int, timeout time.Duration) (Pinger, error) {
		*counts = append(*counts, count)
		if factoryErr != nil {
			return nil, factoryErr
		}
		return f, nil
	}
	return p, counts
}

func TestICMPProber_Probe(t *testing.T) {
	t.Run("replies received", func(t *testing.T) {
		f := &fakePinger{stats: &ping.Statistics{PacketsSent: 4, PacketsRecv: 3, PacketLoss: 25}}
		p, counts := newTestICMPProber(f, nil)

		res := p.Probe(context.Background(), "10.0.0.5")
		assert.True(t, res.Reachable)
		assert.NoError(t, res.Err)
		assert.Equal(t, "4 packets transmitted, 3 received, 25% packet loss", res.Output)
		assert.True(t, f.privileged)
		assert.Equal(t, []int{4}, *counts)
	})

	t.Run("no replies", func(t *testing.T) {
		f := &fakePinger{stats: &ping.Statistics{PacketsSent: 4, PacketLoss: 100}}
		p, _ := newTestICMPProber(f, nil)

		res := p.Probe(context.Background(), "10.0.0.5")
		assert.False(t, res.Reachable)
		assert.ErrorIs(t, res.Err, ErrNoReply)
	})

	t.Run("resolve failure", func(t *testing.T) {
		p, _ := newTestICMPProber(nil, errors.New("no such host"))

		res := p.Probe(context.Background(), "nowhere.invalid")
		assert.False(t, res.Reachable)
		assert.ErrorContains(t, res.Err, "no such host")
	})

	t.Run("run failure", func(t *testing.T) {
		f := &fakePinger{runErr: errors.New("operation not permitted")}
		p, _ := newTestICMPProber(f, nil)

		res := p.Probe(context.Background(), "10.0.0.5")
		assert.False(t, res.Reachable)
		assert.ErrorContains(t, res.Err, "operation not permitted")
	})

	t.Run("panic is absorbed", func(t *testing.T) {
		f := &fakePinger{panicOnRun: true}
		p, _ := newTestICMPProber(f, nil)

		res := p.Probe(context.Background(), "10.0.0.5")
		assert.False(t, res.Reachable)
		assert.ErrorContains(t, res.Err, "socket exploded")
	})
}

func TestFromConfig(t *testing.T) {
	rec := procexec.NewRecorder()

	p, err := FromConfig(config.ReachabilityConfig{Method: "exec", Count: 4}, "ping", rec)
	require.NoError(t, err)
	assert.Equal(t, "exec", p.Name())

	p, err = FromConfig(config.ReachabilityConfig{Method: "icmp", Count: 2, Timeout: time.Second}, "ping", rec)
	require.NoError(t, err)
	assert.Equal(t, "icmp", p.Name())

	_, err = FromConfig(config.ReachabilityConfig{Method: "arp"}, "ping", rec)
	assert.Error(t, err)
}

type stubProber struct{ res Result }

func (s stubProber) Name() string                         { return "stub" }
func (s stubProber) Probe(context.Context, string) Result { return s.res }

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		res      Result
		wantLine string
	}{
		{
			name:     "reachable",
			res:      Result{Reachable: true},
			wantLine: "10.0.0.5 is up. Proceeding with port discovery...",
		},
		{
			name:     "silent host",
			res:      Result{Err: procexec.ErrNonZeroExit},
			wantLine: "10.0.0.5 is not reachable. Skipping port discovery.",
		},
		{
			name:     "silent host icmp",
			res:      Result{Err: ErrNoReply},
			wantLine: "10.0.0.5 is not reachable. Skipping port discovery.",
		},
		{
			name:     "probe could not run",
			res:      Result{Err: procexec.ErrToolNotFound},
			wantLine: "Error pinging 10.0.0.5: tool not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewChecker(stubProber{res: tt.res}, console.New(&buf, true))

			got := c.Check(context.Background(), "10.0.0.5")

			assert.Equal(t, tt.res.Reachable, got.Reachable)
			assert.Equal(t, "Pinging 10.0.0.5...\n"+tt.wantLine+"\n", buf.String())
		})
	}
}

func TestChecker_CheckLevels(t *testing.T) {
	t.Run("unreachable is a warning", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewChecker(stubProber{res: Result{Err: procexec.ErrNonZeroExit}}, console.New(&buf, false))

		c.Check(context.Background(), "10.0.0.5")

		assert.Contains(t, buf.String(), "\x1b[33m10.0.0.5 is not reachable.")
		assert.NotContains(t, buf.String(), "\x1b[31m")
	})

	t.Run("launch failure is an error", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewChecker(stubProber{res: Result{Err: procexec.ErrToolNotFound}}, console.New(&buf, false))

		c.Check(context.Background(), "10.0.0.5")

		assert.Contains(t, buf.String(), "\x1b[31mError pinging 10.0.0.5")
	})
}
