package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// tryCatchUnwrapPass collapses `try { ... } catch (e) {}` (no finalizer, an
// empty handler body) down to the try-block's own statements: an empty
// statement if the block is empty, the lone statement if it holds exactly
// one, or a fresh block otherwise. A non-empty handler, or any finalizer,
// disqualifies the try statement — it is doing real work. Grounded in
// ast_deobfuscate/try_catch.rs.
func tryCatchUnwrapPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitStmt: func(stmt ast.Statement, st *state.State) (ast.Statement, bool) {
			try, ok := stmt.(*ast.TryStatement)
			if !ok {
				return nil, false
			}
			if try.Finalizer != nil || try.Handler == nil || len(try.Handler.Body.Body) != 0 {
				return nil, false
			}
			switch len(try.Block.Body) {
			case 0:
				return a.NewEmptyStatement(), true
			case 1:
				return try.Block.Body[0], true
			default:
				return a.NewBlockStatement(try.Block.Body), true
			}
		},
	}
}
