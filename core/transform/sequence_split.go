package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// sequenceSplitPass splits `a(), b(), c();` into three separate statements,
// in every statement list it's installed against — program body, block
// body, function body alike (spec.md §4.3.10). It does not descend into a
// for-loop's init clause; core/traversal never offers it that slot as a
// statement list to split, since a `for` init position requires a single
// expression, not a statement sequence.
func sequenceSplitPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitStmtList: func(list []ast.Statement, st *state.State) ([]ast.Statement, bool) {
			changed := false
			out := make([]ast.Statement, 0, len(list))
			for _, stmt := range list {
				exprStmt, ok := stmt.(*ast.ExpressionStatement)
				if !ok {
					out = append(out, stmt)
					continue
				}
				seq, ok := exprStmt.Expression.(*ast.SequenceExpression)
				if !ok || len(seq.Expressions) < 2 {
					out = append(out, stmt)
					continue
				}
				for _, e := range seq.Expressions {
					out = append(out, a.NewExpressionStatement(e))
				}
				changed = true
			}
			if !changed {
				return nil, false
			}
			return out, true
		},
	}
}
