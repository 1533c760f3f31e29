// Package diagnostics reports problems found while reconstructing a
// function: constructs the core chose not to (or couldn't) structure,
// passes that gave up, SMT timeouts. Decompilation output has no
// original source line to point a caret at, so a Diagnostic's location
// is a component/function/block triple instead of a file position.
package diagnostics

import "fmt"

// Severity orders diagnostics from fatal to informational.
type Severity string

const (
	SevError   Severity = "error"
	SevWarning Severity = "warning"
	SevNote    Severity = "note"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity  Severity
	Component string // e.g. "structuralize", "refine.CondBasedRefine", "smt"
	Function  string
	Block     string // empty when the diagnostic isn't block-scoped
	Message   string
	HelpText  string
}

// Sink collects diagnostics for a run. It is not safe for concurrent
// use from multiple goroutines without external synchronization.
type Sink struct {
	diags []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(d Diagnostic) { s.diags = append(s.diags, d) }

func (s *Sink) Errorf(component, function, block, format string, args ...any) {
	s.Report(Diagnostic{Severity: SevError, Component: component, Function: function, Block: block, Message: sprintf(format, args...)})
}

func (s *Sink) Warnf(component, function, block, format string, args ...any) {
	s.Report(Diagnostic{Severity: SevWarning, Component: component, Function: function, Block: block, Message: sprintf(format, args...)})
}

func (s *Sink) Diagnostics() []Diagnostic { return s.diags }

func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
