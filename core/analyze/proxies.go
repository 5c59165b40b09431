package analyze

import (
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
)

// CollectCallProxies populates st.CallProxies with every single-statement
// pass-through function (spec.md §4.2.3: `function name(p1..pk){ return
// target(p1..pk); }`, params forwarded as plain identifiers in the same
// order) and st.CallCounts with how many times every identifier is
// referenced as a call callee, so the inliner (core/transform) can restrict
// itself to proxies state.State.SingleUseProxies reports as safe.
//
// Grounded in the original implementation's CallProxyCollector
// (ast_deobfuscate/call_proxy.rs): a strict shape match, not a heuristic
// one — any deviation (extra statement, reordered args, async/generator)
// disqualifies the candidate. CallCounts mirrors call_proxy.rs's
// enter_call_expression, which counts only the callee position: a proxy
// name that also appears in value position (`var y = w;`) is a distinct
// reference the spec doesn't count toward single-use.
func CollectCallProxies(prog *ast.Program, st *state.State) {
	ast.Walk(prog, func(n ast.Node) bool {
		fn, ok := n.(*ast.FunctionDeclaration)
		if !ok {
			return true
		}
		if info, ok := matchCallProxy(fn); ok {
			st.CallProxies[info.Name] = info
		}
		return true
	})

	ast.Walk(prog, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpression)
		if !ok {
			return true
		}
		if ident, ok := call.Callee.(*ast.Identifier); ok {
			st.CallCounts[ident.Name]++
		}
		return true
	})
}

func matchCallProxy(fn *ast.FunctionDeclaration) (*state.CallProxyInfo, bool) {
	if fn.Async || fn.Generator || fn.Id == "" {
		return nil, false
	}
	if fn.Body == nil || len(fn.Body.Body) != 1 {
		return nil, false
	}
	ret, ok := fn.Body.Body[0].(*ast.ReturnStatement)
	if !ok || ret.Argument == nil {
		return nil, false
	}
	call, ok := ret.Argument.(*ast.CallExpression)
	if !ok {
		return nil, false
	}
	target, ok := call.Callee.(*ast.Identifier)
	if !ok || target.Name == fn.Id {
		return nil, false
	}
	if len(call.Arguments) != len(fn.Params) {
		return nil, false
	}
	for i, param := range fn.Params {
		arg, ok := call.Arguments[i].(*ast.Identifier)
		if !ok || arg.Name != param {
			return nil, false
		}
	}
	return &state.CallProxyInfo{
		Name:       fn.Id,
		TargetName: target.Name,
		Params:     append([]string(nil), fn.Params...),
	}, true
}
