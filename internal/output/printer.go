// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output formats cookbook data for the terminal: colored notices,
// recipe tables, recipe pages, and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode selects when colors are used.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses auto, always, or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
}

// ResolveColors decides whether to color output. Auto honours NO_COLOR and
// TERM=dumb, then fatih/color's own terminal detection.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return !color.NoColor
}

// Printer writes user-facing output. Data goes to out, notices to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter returns a printer on stdout and stderr.
func NewPrinter(mode ColorMode) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, ResolveColors(mode))
}

// NewPrinterWithWriters returns a printer on the given writers.
func NewPrinterWithWriters(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Out returns the data writer.
func (p *Printer) Out() io.Writer { return p.out }

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", format, args...)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		p.line(p.out, color.FgGreen, "✓ ", format, args...)
		return
	}
	p.line(p.out, 0, "[OK] ", format, args...)
}

// Warning prints a non-fatal notice to the error stream.
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		p.line(p.err, color.FgYellow, "⚠ ", format, args...)
		return
	}
	p.line(p.err, 0, "[WARN] ", format, args...)
}

// Error prints an error line to the error stream.
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		p.line(p.err, color.FgRed, "✗ ", format, args...)
		return
	}
	p.line(p.err, 0, "[ERROR] ", format, args...)
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header with an underline.
func (p *Printer) Header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		color.New(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len([]rune(title))))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

// Heart marks a favorite.
func (p *Printer) Heart(favorite bool) string {
	switch {
	case favorite && p.useColors:
		return color.RedString("♥")
	case favorite:
		return "*"
	case p.useColors:
		return color.New(color.Faint).Sprint("♡")
	default:
		return ""
	}
}

// JSON writes v as indented JSON to the data stream.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) line(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	if p.useColors && attr != 0 {
		color.New(attr).Fprintf(w, prefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, prefix+format+"\n", args...)
}
