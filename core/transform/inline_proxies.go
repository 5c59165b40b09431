package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// callProxyInliner rewrites a call to a single-use pass-through function
// (state.State.SingleUseProxies) to call its target directly, then removes
// the now-dead proxy declaration. Grounded in
// ast_deobfuscate/call_proxy.rs's CallProxyInliner: the declaration is
// cleared to an EmptyStatement rather than spliced out of its list here —
// emptyStatementCleanupPass (spec.md §4.3.12) removes it later in the same
// outer iteration.
func callProxyInliner(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			call, ok := expr.(*ast.CallExpression)
			if !ok {
				return nil, false
			}
			callee, ok := call.Callee.(*ast.Identifier)
			if !ok {
				return nil, false
			}
			proxies := st.SingleUseProxies()
			info, ok := proxies[callee.Name]
			if !ok {
				return nil, false
			}
			callee.Name = info.TargetName
			return call, true
		},
		ExitStmt: func(stmt ast.Statement, st *state.State) (ast.Statement, bool) {
			fn, ok := stmt.(*ast.FunctionDeclaration)
			if !ok {
				return nil, false
			}
			proxies := st.SingleUseProxies()
			if _, ok := proxies[fn.Id]; !ok {
				return nil, false
			}
			return a.NewEmptyStatement(), true
		},
	}
}
