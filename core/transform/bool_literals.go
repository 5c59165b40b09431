package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// booleanLiteralPass folds `!0` to `true` and `!1` to `false`. Any other
// numeric operand of `!` is left alone. Grounded in
// ast_deobfuscate/boolean_literals.rs.
func booleanLiteralPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			unary, ok := expr.(*ast.UnaryExpression)
			if !ok || unary.Operator != "!" {
				return nil, false
			}
			num, ok := unary.Argument.(*ast.NumericLiteral)
			if !ok {
				return nil, false
			}
			switch num.Value {
			case 0:
				return a.NewBooleanLiteral(true), true
			case 1:
				return a.NewBooleanLiteral(false), true
			}
			return nil, false
		},
	}
}
