package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// stringArrayInliner rewrites two shapes identified by core/analyze: direct
// indexing into a recovered table (`_0x5a3b[2]`) and a decoder-function call
// (`_0xdec(0)`), both folding to the literal string they resolve to.
// Grounded in ast_deobfuscate/string_array_inline.rs's try_inline_array_access,
// generalized to decoder-function calls per spec.md §4.2.2.
func stringArrayInliner(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			switch e := expr.(type) {
			case *ast.ComputedMemberExpression:
				ident, ok := e.Object.(*ast.Identifier)
				if !ok {
					return nil, false
				}
				info, ok := st.StringArrays[ident.Name]
				if !ok {
					return nil, false
				}
				idx, ok := literalIndex(e.Property)
				if !ok || idx < 0 || idx >= len(info.Strings) {
					return nil, false
				}
				return a.NewStringLiteral(info.Strings[idx]), true

			case *ast.CallExpression:
				callee, ok := e.Callee.(*ast.Identifier)
				if !ok || len(e.Arguments) != 1 {
					return nil, false
				}
				decoder, ok := st.Decoders[callee.Name]
				if !ok {
					return nil, false
				}
				idx, ok := literalIndex(e.Arguments[0])
				if !ok {
					return nil, false
				}
				value, ok := decoder.Resolve(st.StringArrays, idx)
				if !ok {
					return nil, false
				}
				return a.NewStringLiteral(value), true
			}
			return nil, false
		},
	}
}

func literalIndex(expr ast.Expression) (int, bool) {
	num, ok := expr.(*ast.NumericLiteral)
	if !ok {
		return 0, false
	}
	if num.Value != float64(int(num.Value)) {
		return 0, false
	}
	return int(num.Value), true
}
