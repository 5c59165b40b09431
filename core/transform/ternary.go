package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// ternaryPass resolves `cond ? a : b` to whichever branch cond's value
// statically determines: a boolean literal's own value, a number's
// non-zeroness, a string's non-emptiness, or false for null. Any other test
// expression (an identifier, a call) is left unresolved. Grounded in
// ast_deobfuscate/ternary.rs.
func ternaryPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			cond, ok := expr.(*ast.ConditionalExpression)
			if !ok {
				return nil, false
			}
			value, ok := constantBoolean(cond.Test)
			if !ok {
				return nil, false
			}
			if value {
				return cond.Consequent, true
			}
			return cond.Alternate, true
		},
	}
}

func constantBoolean(expr ast.Expression) (bool, bool) {
	switch e := expr.(type) {
	case *ast.BooleanLiteral:
		return e.Value, true
	case *ast.NumericLiteral:
		return e.Value != 0, true
	case *ast.StringLiteral:
		return e.Value != "", true
	case *ast.NullLiteral:
		return false, true
	}
	return false, false
}
