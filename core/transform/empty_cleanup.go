package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// emptyStatementCleanupPass drops EmptyStatement nodes from every statement
// list. It runs after every other pass except the renamer in the fixed
// pass order (spec.md §4.4), so it also
// mops up the EmptyStatements the call-proxy inliner and the try/catch
// unwrap leave behind earlier in the same outer iteration. Grounded in
// ast_deobfuscate/empty_statement_cleanup.rs.
func emptyStatementCleanupPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitStmtList: func(list []ast.Statement, st *state.State) ([]ast.Statement, bool) {
			out := make([]ast.Statement, 0, len(list))
			removed := false
			for _, stmt := range list {
				if _, ok := stmt.(*ast.EmptyStatement); ok {
					removed = true
					continue
				}
				out = append(out, stmt)
			}
			if !removed {
				return nil, false
			}
			return out, true
		},
	}
}
