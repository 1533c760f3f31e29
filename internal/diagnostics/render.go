package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Renderer formats Diagnostics in a compiler-style layout — a colored
// header, a "-->" location line, a help/note trailer — minus the
// source excerpt and caret marker, which have no meaning once there's
// no source text to point into. In their place the location line names
// the component, function, and (if any) block that raised the
// diagnostic.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Format(d Diagnostic) string {
	var b strings.Builder

	levelColor := r.levelColor(d.Severity)
	dim := color.New(color.Faint).SprintFunc()

	b.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Severity)), d.Message))

	loc := d.Function
	if d.Block != "" {
		loc = fmt.Sprintf("%s/%s", d.Function, d.Block)
	}
	b.WriteString(fmt.Sprintf("   %s %s in %s\n", dim("-->"), d.Component, loc))
	b.WriteString(fmt.Sprintf("   %s\n", dim("│")))

	if d.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		b.WriteString(fmt.Sprintf("   %s %s %s\n", dim("│"), helpColor("help:"), d.HelpText))
	}

	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) FormatAll(diags []Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(r.Format(d))
	}
	return b.String()
}

func (r *Renderer) levelColor(sev Severity) func(...any) string {
	switch sev {
	case SevError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case SevWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case SevNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
