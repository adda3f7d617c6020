// Copyright 2025 Pentora Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package console renders operator-facing status lines.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level identifies the visual treatment of a status line.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Printer writes color-tagged status lines. It holds no mutable state after
// construction and may be shared by every stage of a run.
type Printer struct {
	out     io.Writer
	noColor bool
	styles  map[Level]*color.Color
}

// New creates a Printer writing to out. When noColor is true every line is
// written without ANSI sequences.
func New(out io.Writer, noColor bool) *Printer {
	styles := map[Level]*color.Color{
		LevelInfo:    color.New(color.FgBlue),
		LevelSuccess: color.New(color.FgGreen),
		LevelWarn:    color.New(color.FgYellow),
		LevelError:   color.New(color.FgRed),
	}
	for _, c := range styles {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return &Printer{out: out, noColor: noColor, styles: styles}
}

// ColorEnabled reports whether w is an interactive terminal that should
// receive colored output.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writer returns the underlying destination.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// NoColor reports whether color output is disabled.
func (p *Printer) NoColor() bool {
	return p.noColor
}

func (p *Printer) Info(format string, args ...any)    { p.line(LevelInfo, format, args...) }
func (p *Printer) Success(format string, args ...any) { p.line(LevelSuccess, format, args...) }
func (p *Printer) Warn(format string, args ...any)    { p.line(LevelWarn, format, args...) }
func (p *Printer) Error(format string, args ...any)   { p.line(LevelError, format, args...) }

// Raw writes text verbatim in the given level's color. A trailing newline is
// added only when text does not already end with one.
func (p *Printer) Raw(level Level, text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, _ = p.style(level).Fprint(p.out, text)
}

func (p *Printer) line(level Level, format string, args ...any) {
	_, _ = p.style(level).Fprintln(p.out, fmt.Sprintf(format, args...))
}

func (p *Printer) style(level Level) *color.Color {
	if c, ok := p.styles[level]; ok {
		return c
	}
	return p.styles[LevelInfo]
}
