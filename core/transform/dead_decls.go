package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// deadDeclarationCleanup implements spec.md §4.2.2's trailing step: once
// this iteration's string-array inlining has folded every call site it
// could, the decoder function, the recovered array table, and the rotation
// IIFE that fed it are no longer referenced for anything but their own
// declarations — removing them is what turns S1's four `console.log`
// literals into the whole of the output, rather than leaving the recovered
// table sitting next to its already-inlined uses.
//
// Reference counts are recomputed fresh against the tree as it stands after
// this iteration's other passes ran (spec.md: "a trailing cleanup pass
// recomputes the count"), not the counts core/state recorded before any
// rewriting happened, since an earlier pass in the same iteration may have
// folded away the last remaining use.
func deadDeclarationCleanup(a *arena.Arena, prog *ast.Program) traversal.Hooks {
	return traversal.Hooks{
		ExitStmtList: func(list []ast.Statement, st *state.State) ([]ast.Statement, bool) {
			if len(st.StringArrays) == 0 && len(st.Decoders) == 0 {
				return nil, false
			}
			deadDecoders := findDeadDecoders(prog, st)
			deadArrays := findDeadArrays(prog, st, deadDecoders)

			changed := false
			out := make([]ast.Statement, 0, len(list))
			for _, stmt := range list {
				if isRotationIIFECall(stmt, st) && deadArrays[rotationIIFEArrayName(stmt)] {
					changed = true
					continue
				}
				if decl, ok := stmt.(*ast.VariableDeclaration); ok && len(decl.Declarations) == 1 && deadArrays[decl.Declarations[0].Name] {
					changed = true
					continue
				}
				if fn, ok := stmt.(*ast.FunctionDeclaration); ok && deadDecoders[fn.Id] {
					changed = true
					continue
				}
				out = append(out, stmt)
			}
			if !changed {
				return nil, false
			}
			return out, true
		},
	}
}

// findDeadDecoders reports, for each known decoder, whether any call site
// anywhere in the program still invokes it by name. string-array inlining
// already replaced every call whose argument was a numeric literal, so a
// surviving call means an out-of-bounds index or a non-literal argument
// defeated inlining — the decoder must stay.
func findDeadDecoders(prog *ast.Program, st *state.State) map[string]bool {
	if len(st.Decoders) == 0 {
		return nil
	}
	used := make(map[string]bool, len(st.Decoders))
	ast.Walk(prog, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpression)
		if !ok {
			return true
		}
		callee, ok := call.Callee.(*ast.Identifier)
		if !ok {
			return true
		}
		if _, known := st.Decoders[callee.Name]; known {
			used[callee.Name] = true
		}
		return true
	})
	dead := make(map[string]bool, len(st.Decoders))
	for name := range st.Decoders {
		dead[name] = !used[name]
	}
	return dead
}

// findDeadArrays reports, for each known string-array table, whether any
// reference to it remains once the rotation IIFE (always dead once
// consumed) and any decoder being removed this pass are discounted. A
// decoder that survives (deadDecoders[name] is false) still reads the
// array at runtime, so its body's reference keeps the array alive.
func findDeadArrays(prog *ast.Program, st *state.State, deadDecoders map[string]bool) map[string]bool {
	if len(st.StringArrays) == 0 {
		return nil
	}
	counts := make(map[string]int, len(st.StringArrays))
	for _, stmt := range prog.Body {
		countArrayRefs(stmt, st, deadDecoders, counts)
	}
	dead := make(map[string]bool, len(st.StringArrays))
	for name := range st.StringArrays {
		dead[name] = counts[name] == 0
	}
	return dead
}

func countArrayRefs(stmt ast.Statement, st *state.State, deadDecoders map[string]bool, counts map[string]int) {
	if isRotationIIFECall(stmt, st) {
		return
	}
	if decl, ok := stmt.(*ast.VariableDeclaration); ok && len(decl.Declarations) == 1 {
		if _, known := st.StringArrays[decl.Declarations[0].Name]; known {
			return
		}
	}
	if fn, ok := stmt.(*ast.FunctionDeclaration); ok {
		if _, known := st.Decoders[fn.Id]; known && deadDecoders[fn.Id] {
			return
		}
	}
	ast.Walk(stmt, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			if _, known := st.StringArrays[id.Name]; known {
				counts[id.Name]++
			}
		}
		return true
	})
}

// isRotationIIFECall reports whether stmt is the rotation IIFE that
// core/analyze already consumed (st marks the array it targets as
// Rotated). Once consumed, the IIFE has no remaining effect: the array it
// mutates is about to be removed too, and nothing downstream observes the
// mutation.
func isRotationIIFECall(stmt ast.Statement, st *state.State) bool {
	name := rotationIIFEArrayName(stmt)
	if name == "" {
		return false
	}
	info, ok := st.StringArrays[name]
	return ok && info.Rotated
}

// rotationIIFEArrayName returns the array identifier name stmt's call
// passes as its first argument if stmt has the rotation-IIFE shape, or ""
// otherwise.
func rotationIIFEArrayName(stmt ast.Statement) string {
	exprStmt, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return ""
	}
	call, ok := exprStmt.Expression.(*ast.CallExpression)
	if !ok || len(call.Arguments) != 2 {
		return ""
	}
	paren, ok := call.Callee.(*ast.ParenthesizedExpression)
	if !ok {
		return ""
	}
	if _, ok := paren.Expression.(*ast.FunctionExpression); !ok {
		return ""
	}
	arrIdent, ok := call.Arguments[0].(*ast.Identifier)
	if !ok {
		return ""
	}
	return arrIdent.Name
}
