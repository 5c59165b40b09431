package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// arrayUnpackPass folds `[e0, e1, e2][1]` to `e1` when the index is a
// literal in range and the array literal has no elisions or spreads.
// Distinct from the string-array-table inliner: this fires on an inline
// ArrayExpression object, not a named variable. Grounded in
// ast_deobfuscate/array_unpack.rs.
func arrayUnpackPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			member, ok := expr.(*ast.ComputedMemberExpression)
			if !ok {
				return nil, false
			}
			arr, ok := member.Object.(*ast.ArrayExpression)
			if !ok {
				return nil, false
			}
			idx, ok := literalIndex(member.Property)
			if !ok || idx < 0 || idx >= len(arr.Elements) {
				return nil, false
			}
			el := arr.Elements[idx]
			if el.Elision || el.Spread || el.Expression == nil {
				return nil, false
			}
			return el.Expression, true
		},
	}
}
