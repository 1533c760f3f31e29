// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"recondition/internal/ast"
	"recondition/internal/config"
	"recondition/internal/diagnostics"
	"recondition/internal/ir"
	"recondition/internal/irjson"
	"recondition/internal/pipeline"
	"recondition/internal/render"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		color.Red("recondition: %s", err)
		os.Exit(1)
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		color.Red("recondition: %s", err)
		os.Exit(1)
	}
	defer f.Close()

	mod, err := irjson.Decode(f)
	if err != nil {
		color.Red("recondition: %s", err)
		os.Exit(1)
	}

	sink := diagnostics.NewSink()
	renderer := diagnostics.NewRenderer()

	out := os.Stdout
	if cfg.OutputPath != "" {
		w, err := os.Create(cfg.OutputPath)
		if err != nil {
			color.Red("recondition: %s", err)
			os.Exit(1)
		}
		defer w.Close()
		out = w
	}

	exitCode := 0
	for _, fn := range mod.Functions {
		decl, err := reconstruct(fn, cfg.Pipeline)
		if err != nil {
			sink.Errorf("pipeline", fn.Name, "", "%s", err)
			exitCode = 1
			continue
		}
		fmt.Fprint(out, render.FuncDecl(decl))
	}

	if len(sink.Diagnostics()) > 0 {
		fmt.Fprint(os.Stderr, renderer.FormatAll(sink.Diagnostics()))
	}
	if exitCode == 0 {
		color.Green("✅ reconstructed %s (%d function(s))", cfg.InputPath, len(mod.Functions))
	}
	os.Exit(exitCode)
}

// reconstruct runs one function through the pass manager, recovering
// from the panics a malformed or adversarial CFG could otherwise turn
// into a crash (an UnsupportedConstruct, per the pipeline's own
// invariant reporting, should fail that one function, not the run).
func reconstruct(fn *ir.Function, cfg pipeline.Config) (decl *ast.FuncDecl, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unsupported construct: %v", r)
		}
	}()
	m := pipeline.New(cfg)
	d, runErr := m.Run(fn)
	if runErr != nil {
		return nil, runErr
	}
	return d, nil
}
