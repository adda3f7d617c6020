package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/hostrecon/pkg/artifact"
	"github.com/vulntor/hostrecon/pkg/config"
	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/discovery"
	"github.com/vulntor/hostrecon/pkg/logging"
	"github.com/vulntor/hostrecon/pkg/paths"
	"github.com/vulntor/hostrecon/pkg/pipeline"
	"github.com/vulntor/hostrecon/pkg/probe"
	"github.com/vulntor/hostrecon/pkg/procexec"
	"github.com/vulntor/hostrecon/pkg/reachability"
	"github.com/vulntor/hostrecon/pkg/toolcheck"
	"github.com/vulntor/hostrecon/pkg/version"
)

const cliExecutable = "hostrecon"

// Deps are the process-level collaborators of the CLI.
type Deps struct {
	Runner   procexec.Runner
	LookPath toolcheck.LookPathFunc
}

// NewCommand constructs the hostrecon CLI backed by real child processes.
func NewCommand() *cobra.Command {
	return newCommand(Deps{Runner: procexec.NewExecRunner()})
}

func newCommand(deps Deps) *cobra.Command {
	var (
		configFile string
		checkTools bool
		showConfig string
		manager    = config.NewManager()
	)

	cmd := &cobra.Command{
		Use:   cliExecutable + " [flags] <target>",
		Short: "Check a host, find its open TCP ports and fingerprint them",
		Long: `hostrecon pings a single target, scans all 65535 TCP ports with nmap,
writes the open ones to a port list file and runs nmap default scripts and
version detection against exactly those ports.`,
		Example: `  hostrecon 10.0.0.5
  hostrecon --min-rate 1000 scanme.example.org
  hostrecon --check-tools
  hostrecon --show-config=scan.min_rate`,
		Version: versionText(),
		Args: func(_ *cobra.Command, args []string) error {
			if flag := exclusiveFlag(checkTools, showConfig); flag != "" {
				if len(args) != 0 {
					return pipeline.NewNoTargetError(flag, len(args))
				}
				return nil
			}
			if len(args) != 1 {
				return pipeline.NewUsageError(len(args))
			}
			return pipeline.ValidateTarget(args[0])
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile == "" {
				configFile = paths.ConfigFile()
			}
			if err := manager.Load(config.DefaultSources(configFile, cmd.Flags(), false)...); err != nil {
				return pipeline.NewConfigError(err)
			}
			cfg := manager.Get()
			if err := logging.ConfigureGlobalLogging(cfg.Log.Level, cfg.Log.Format, cfg.Console.NoColor); err != nil {
				return pipeline.NewConfigError(err)
			}
			log.Debug().Str("config", configFile).Str("build", version.Info()).Msg("configuration loaded")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case checkTools:
				return runToolCheck(cmd, deps, manager.Get())
			case showConfig != "":
				return runShowConfig(cmd, manager, showConfig)
			}
			return runPipeline(cmd, deps, manager.Get(), args[0])
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetVersionTemplate("{{.Version}}")

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default $XDG_CONFIG_HOME/hostrecon/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.Flags().BoolVar(&checkTools, "check-tools", false, "Check that ping and nmap are installed, then exit")
	cmd.Flags().StringVar(&showConfig, "show-config", "", "Print the effective configuration, or a single key with --show-config=KEY, then exit")
	cmd.Flags().Lookup("show-config").NoOptDefVal = showAllConfig
	cmd.MarkFlagsMutuallyExclusive("check-tools", "show-config")

	return cmd
}

// exclusiveFlag names the set flag that replaces the scan, if any.
func exclusiveFlag(checkTools bool, showConfig string) string {
	switch {
	case checkTools:
		return "check-tools"
	case showConfig != "":
		return "show-config"
	}
	return ""
}

func versionText() string {
	var b strings.Builder
	if err := version.Print(&b); err != nil {
		return version.Info() + "\n"
	}
	return b.String()
}

func runPipeline(cmd *cobra.Command, deps Deps, cfg config.Config, target string) error {
	stdout := cmd.OutOrStdout()
	out := console.New(stdout, cfg.Console.NoColor || !console.ColorEnabled(stdout))

	prober, err := reachability.FromConfig(cfg.Reachability, cfg.Tools.Ping, deps.Runner)
	if err != nil {
		return pipeline.NewConfigError(err)
	}

	checker := reachability.NewChecker(prober, out)
	discoverer := discovery.New(deps.Runner, artifact.NewPortList(cfg.Artifact.Path), out, discovery.Options{
		Binary:  cfg.Tools.Nmap,
		MinRate: cfg.Scan.MinRate,
	})
	detail := probe.New(deps.Runner, out, probe.Options{Binary: cfg.Tools.Nmap})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sink := pipeline.NewLogSink(logging.NewLogger("pipeline", zerolog.GlobalLevel()))
	outcome := pipeline.New(checker, discoverer, detail, out).
		WithProgressSink(sink).
		Run(ctx, target)

	out.PrintSummary(outcome.Summary(cfg.Artifact.Path))
	return nil
}

// Execute runs cmd and converts its error into a process exit status.
// Usage errors print the usage text on standard output; every error is
// reported on standard error with hints.
func Execute(cmd *cobra.Command) int {
	c, err := cmd.ExecuteContextC(context.Background())
	if err == nil {
		return 0
	}
	if c == nil {
		c = cmd
	}

	if errors.Is(err, pipeline.ErrUsage) {
		_, _ = fmt.Fprint(c.OutOrStdout(), c.UsageString())
	}

	stderr := c.ErrOrStderr()
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	for _, hint := range pipeline.Suggestions(err) {
		_, _ = fmt.Fprintf(stderr, "  %s\n", hint)
	}
	return pipeline.ExitCode(err)
}
