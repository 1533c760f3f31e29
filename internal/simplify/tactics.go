// Package simplify implements the tactic-pipeline mini-language and the
// condition simplifier built on top of it. A pipeline is a small
// "&&"-separated sequence of named tactics ("aig && simplify",
// "aig && propagate-bv-bounds && tseitin-cnf && ctx-simplify"), parsed
// with github.com/alecthomas/participle/v2.
package simplify

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var tacticLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "And", Pattern: `&&`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9-]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// Pipeline is a parsed tactic sequence: Names holds the tactic names in
// application order.
type Pipeline struct {
	Names []string `@Ident { "&&" @Ident }`
}

var tacticParser = participle.MustBuild[Pipeline](
	participle.Lexer(tacticLexer),
	participle.Elide("Whitespace"),
)

// ParsePipeline parses a tactic-pipeline string such as
// "aig && simplify" into an ordered list of tactic names.
func ParsePipeline(src string) ([]string, error) {
	p, err := tacticParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("simplify: invalid tactic pipeline %q: %w", src, err)
	}
	return p.Names, nil
}
