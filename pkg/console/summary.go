// Copyright 2025 Pentora Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary is the end-of-run recap shown below the stage output.
type Summary struct {
	RunID    string
	Target   string
	State    string
	Ports    []string
	Artifact string
	Elapsed  time.Duration
}

// Rows returns the label/value pairs rendered inside the summary box.
func (s Summary) Rows() [][2]string {
	ports := "none"
	if len(s.Ports) > 0 {
		ports = strings.Join(s.Ports, ", ")
	}
	return [][2]string{
		{"Run", s.RunID},
		{"Target", s.Target},
		{"Result", s.State},
		{"Open ports", ports},
		{"Port list", s.Artifact},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}
}

// PrintSummary renders s as a bordered box.
func (p *Printer) PrintSummary(s Summary) {
	r := lipgloss.NewRenderer(p.out)

	label := r.NewStyle().Bold(true).Width(11)
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if !p.noColor {
		label = label.Foreground(lipgloss.Color("12"))
		box = box.BorderForeground(lipgloss.Color("8"))
	}

	lines := make([]string, 0, len(s.Rows()))
	for _, row := range s.Rows() {
		lines = append(lines, label.Render(row[0])+row[1])
	}

	_, _ = fmt.Fprintln(p.out, box.Render(strings.Join(lines, "\n")))
}
