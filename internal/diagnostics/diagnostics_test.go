package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recondition/internal/diagnostics"
)

func TestSinkCollectsInReportOrder(t *testing.T) {
	s := diagnostics.NewSink()
	s.Warnf("structuralize", "f", "b1", "widened %s", "guard")
	s.Errorf("smt", "f", "", "timed out after %dms", 500)

	got := s.Diagnostics()
	require.Len(t, got, 2)
	assert.Equal(t, diagnostics.SevWarning, got[0].Severity)
	assert.Equal(t, "widened guard", got[0].Message)
	assert.Equal(t, diagnostics.SevError, got[1].Severity)
	assert.Equal(t, "timed out after 500ms", got[1].Message)
}

func TestHasErrorsFalseWithOnlyWarnings(t *testing.T) {
	s := diagnostics.NewSink()
	s.Warnf("refine", "f", "", "no-op pass")
	assert.False(t, s.HasErrors())
}

func TestHasErrorsTrueAfterErrorf(t *testing.T) {
	s := diagnostics.NewSink()
	s.Warnf("refine", "f", "", "no-op pass")
	s.Errorf("structuralize", "g", "", "unsupported construct")
	assert.True(t, s.HasErrors())
}

func TestErrorfWithoutArgsLeavesFormatLiteral(t *testing.T) {
	s := diagnostics.NewSink()
	msg := "100% literal % sign"
	s.Errorf("pipeline", "f", "", msg)
	assert.Equal(t, "100% literal % sign", s.Diagnostics()[0].Message)
}

func TestRendererFormatIncludesComponentAndFunction(t *testing.T) {
	r := diagnostics.NewRenderer()
	got := r.Format(diagnostics.Diagnostic{
		Severity:  diagnostics.SevWarning,
		Component: "refine.LoopRefine",
		Function:  "decode_frame",
		Message:   "gave up after 10000 iterations",
	})
	assert.Contains(t, got, "gave up after 10000 iterations")
	assert.Contains(t, got, "refine.LoopRefine")
	assert.Contains(t, got, "decode_frame")
}

func TestRendererFormatIncludesBlockWhenSet(t *testing.T) {
	r := diagnostics.NewRenderer()
	got := r.Format(diagnostics.Diagnostic{
		Severity:  diagnostics.SevError,
		Component: "structuralize",
		Function:  "f",
		Block:     "bb3",
		Message:   "unsupported construct",
	})
	assert.Contains(t, got, "f/bb3")
}

func TestRendererFormatIncludesHelpTextWhenSet(t *testing.T) {
	r := diagnostics.NewRenderer()
	got := r.Format(diagnostics.Diagnostic{
		Severity: diagnostics.SevNote,
		Function: "f",
		Message:  "condition left unsimplified",
		HelpText: "raise --smt-timeout",
	})
	assert.Contains(t, got, "help:")
	assert.Contains(t, got, "raise --smt-timeout")
}

func TestRendererFormatAllConcatenatesInOrder(t *testing.T) {
	r := diagnostics.NewRenderer()
	got := r.FormatAll([]diagnostics.Diagnostic{
		{Severity: diagnostics.SevWarning, Function: "a", Message: "first"},
		{Severity: diagnostics.SevError, Function: "b", Message: "second"},
	})
	firstIdx := strings.Index(got, "first")
	secondIdx := strings.Index(got, "second")
	require.True(t, firstIdx >= 0 && secondIdx > firstIdx)
}
