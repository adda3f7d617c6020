package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulntor/hostrecon/pkg/config"
	"github.com/vulntor/hostrecon/pkg/console"
	"github.com/vulntor/hostrecon/pkg/toolcheck"
)

// ErrToolsUnavailable is returned by --check-tools when a collaborator is
// missing or too old.
var ErrToolsUnavailable = errors.New("required tools are unavailable")

func runToolCheck(cmd *cobra.Command, deps Deps, cfg config.Config) error {
	checker := toolcheck.New(deps.Runner, toolcheck.Options{
		Ping:           cfg.Tools.Ping,
		Nmap:           cfg.Tools.Nmap,
		MinNmapVersion: cfg.Tools.MinNmapVersion,
		LookPath:       deps.LookPath,
	})

	statuses := checker.Check(cmd.Context())
	stdout := cmd.OutOrStdout()
	out := console.New(stdout, cfg.Console.NoColor || !console.ColorEnabled(stdout))
	if err := printToolTable(out, statuses); err != nil {
		return err
	}

	var missing []string
	for _, st := range statuses {
		if !st.OK() {
			missing = append(missing, st.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrToolsUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

func printToolTable(out *console.Printer, statuses []toolcheck.Status) error {
	w := tabwriter.NewWriter(out.Writer(), 0, 0, 2, ' ', 0)

	headers := []string{"TOOL", "PATH", "VERSION", "STATUS"}
	if !out.NoColor() {
		for i, h := range headers {
			headers[i] = color.New(color.Bold).Sprint(h)
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if out.NoColor() {
		ok.DisableColor()
		bad.DisableColor()
	}

	for _, st := range statuses {
		status := ok.Sprint("ok")
		if !st.OK() {
			status = bad.Sprint(st.Err.Error())
		}
		row := []string{st.Name, dash(st.Path), dash(st.Version), status}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
