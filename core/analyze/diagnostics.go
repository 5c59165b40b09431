package analyze

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
)

// NearMissDiagnostics looks for decoder-shaped calls this pass's strict
// matchers in strings.go rejected, then fuzzy-matches the callee name
// against the decoder functions that WERE recognized. A near-miss close
// enough to flag usually means an obfuscator variant (an extra wrapper
// layer, a renamed helper) this pipeline doesn't model yet, rather than an
// unrelated function — grounded on the teacher's runtime/planner/planner.go
// findClosestMatch helper. Candidates are ranked by case-folded edit
// distance (fuzzy.LevenshteinDistance), so a callee longer or shorter than
// the decoder name is compared the same way.
func NearMissDiagnostics(prog *ast.Program, st *state.State) []string {
	if len(st.Decoders) == 0 {
		return nil
	}
	known := make([]string, 0, len(st.Decoders))
	for name := range st.Decoders {
		known = append(known, name)
	}

	var diagnostics []string
	seen := make(map[string]bool)
	ast.Walk(prog, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpression)
		if !ok {
			return true
		}
		callee, ok := call.Callee.(*ast.Identifier)
		if !ok {
			return true
		}
		if _, isDecoder := st.Decoders[callee.Name]; isDecoder {
			return true
		}
		if len(call.Arguments) != 1 {
			return true
		}
		if _, isLiteral := call.Arguments[0].(*ast.NumericLiteral); !isLiteral {
			return true
		}
		if seen[callee.Name] {
			return true
		}
		best, bestDist := "", -1
		for _, name := range known {
			d := fuzzy.LevenshteinDistance(strings.ToLower(callee.Name), strings.ToLower(name))
			if bestDist < 0 || d < bestDist || (d == bestDist && name < best) {
				best, bestDist = name, d
			}
		}
		if bestDist == 0 || bestDist > 2 {
			return true
		}
		seen[callee.Name] = true
		diagnostics = append(diagnostics, fmt.Sprintf(
			"call to %q (single numeric argument) resembles known decoder %q (edit distance %d); not inlined",
			callee.Name, best, bestDist))
		return true
	})
	return diagnostics
}
