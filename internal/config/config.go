// Package config resolves the command-line-facing settings for a
// reconstruction run: where input comes from and output goes, and the
// two simplifier tactic pipelines and SMT timeout that
// internal/pipeline.Config models.
package config

import (
	"flag"
	"fmt"
	"time"

	"recondition/internal/pipeline"
	"recondition/internal/simplify"
)

// Config holds everything a reconstruction run needs beyond the
// in-memory IR itself.
type Config struct {
	InputPath  string
	OutputPath string
	Pipeline   pipeline.Config
}

// Load parses CLI flags (-out for the output path) and one positional
// input path into a Config, checking the syntax of both tactic
// pipelines up front via simplify.ParsePipeline so a malformed
// --cbr-tactics fails before any function is touched rather than
// mid-run. An unknown tactic name passes this check; simplify.New
// rejects it when the pipeline is built.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("recondition", flag.ContinueOnError)
	def := pipeline.DefaultConfig()

	out := fs.String("out", "", "output path for rendered pseudocode (default: stdout)")
	cbrTactics := fs.String("cbr-tactics", def.CBRTactics, "tactic pipeline used while merging conditions during refinement")
	finalTactics := fs.String("final-tactics", def.FinalTactics, "tactic pipeline used during the final refinement phase")
	timeout := fs.Duration("smt-timeout", def.SMTTimeout, "per-query timeout for the SMT bridge")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() < 1 {
		return Config{}, fmt.Errorf("config: missing input path")
	}

	if _, err := simplify.ParsePipeline(*cbrTactics); err != nil {
		return Config{}, fmt.Errorf("config: --cbr-tactics: %w", err)
	}
	if _, err := simplify.ParsePipeline(*finalTactics); err != nil {
		return Config{}, fmt.Errorf("config: --final-tactics: %w", err)
	}

	return Config{
		InputPath:  fs.Arg(0),
		OutputPath: *out,
		Pipeline: pipeline.Config{
			CBRTactics:   *cbrTactics,
			FinalTactics: *finalTactics,
			SMTTimeout:   clampPositive(*timeout, def.SMTTimeout),
		},
	}, nil
}

func clampPositive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
