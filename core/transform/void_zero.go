package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// voidZeroPass folds `void 0` to the bare identifier `undefined`. Any other
// void operand (`void fn()`, `void "x"`) is left alone. Grounded in
// ast_deobfuscate/void_replacer.rs.
func voidZeroPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			unary, ok := expr.(*ast.UnaryExpression)
			if !ok || unary.Operator != "void" {
				return nil, false
			}
			num, ok := unary.Argument.(*ast.NumericLiteral)
			if !ok || num.Value != 0 {
				return nil, false
			}
			return a.NewIdentifier("undefined"), true
		},
	}
}
