// Package analyze implements the two phase-A non-local analyzers spec.md
// §4.2 requires to run before any local rewrite pass: the string-array
// (with rotation) and decoder-function detector, and the call-proxy
// collector (core/analyze/proxies.go). Both are read-only — they record
// what they find into a *state.State for the phase-B inliners to consult —
// grounded in the shape-matching style of the teacher's decorator/schema
// validator (core/decorator/decoder.go), adapted from compile-then-validate
// to detect-then-record.
//
// The exact rotation shape (`while(--n) arr.push(arr.shift())`, driven by an
// IIFE's second argument) and the decoder-function shape (a single `return
// arr[idx]`, optionally offset) are grounded in the original implementation
// this pipeline was distilled from (ast_deobfuscate/string_array_inline.rs).
package analyze

import (
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
)

// DetectStringArrays populates st.StringArrays (applying rotation where a
// matching IIFE is found) and st.Decoders.
func DetectStringArrays(prog *ast.Program, st *state.State) {
	ast.Walk(prog, func(n ast.Node) bool {
		decl, ok := n.(*ast.VariableDeclaration)
		if !ok {
			return true
		}
		for _, d := range decl.Declarations {
			arr, ok := d.Init.(*ast.ArrayExpression)
			if !ok {
				continue
			}
			strs, ok := allStringLiterals(arr)
			if !ok {
				continue
			}
			st.StringArrays[d.Name] = &state.StringArrayInfo{VarName: d.Name, Strings: strs}
		}
		return true
	})

	ast.Walk(prog, func(n ast.Node) bool {
		exprStmt, ok := n.(*ast.ExpressionStatement)
		if !ok {
			return true
		}
		call, ok := exprStmt.Expression.(*ast.CallExpression)
		if !ok {
			return true
		}
		applyRotationIIFE(call, st)
		return true
	})

	ast.Walk(prog, func(n ast.Node) bool {
		fn, ok := n.(*ast.FunctionDeclaration)
		if !ok {
			return true
		}
		if info, ok := matchDecoder(fn, st); ok {
			st.Decoders[info.FunctionName] = info
		}
		return true
	})
}

func allStringLiterals(arr *ast.ArrayExpression) ([]string, bool) {
	out := make([]string, 0, len(arr.Elements))
	for _, el := range arr.Elements {
		if el.Elision || el.Spread || el.Expression == nil {
			return nil, false
		}
		s, ok := el.Expression.(*ast.StringLiteral)
		if !ok {
			return nil, false
		}
		out = append(out, s.Value)
	}
	return out, true
}

// applyRotationIIFE matches `(function(a,b){ var r=function(n){while(--n){
// a.push(a.shift()); }}; r(k); })(arrayName, countArg)` and, if it
// recognizes the array and the loop shape, rotates the recorded table left
// by countArg mod len(table). countArg (not the simulated loop-iteration
// count) is what spec.md §4.2.1 names as the rotation count: an obfuscator
// that drives its decrementing loop with a value unrelated to the number of
// iterations is still recognized by this rule, matching the worked example
// in spec.md's S1.
func applyRotationIIFE(call *ast.CallExpression, st *state.State) {
	paren, ok := call.Callee.(*ast.ParenthesizedExpression)
	if !ok {
		return
	}
	fn, ok := paren.Expression.(*ast.FunctionExpression)
	if !ok || len(fn.Params) != 2 || fn.Body == nil {
		return
	}
	if len(call.Arguments) != 2 {
		return
	}
	arrIdent, ok := call.Arguments[0].(*ast.Identifier)
	if !ok {
		return
	}
	info, ok := st.StringArrays[arrIdent.Name]
	if !ok || info.Rotated {
		return
	}
	countVal, ok := parseIntLiteral(call.Arguments[1])
	if !ok {
		return
	}
	if !hasRotationLoopShape(fn.Body, fn.Params[0]) {
		return
	}
	n := len(info.Strings)
	if n == 0 {
		return
	}
	count := ((countVal % n) + n) % n
	info.Strings = rotateLeft(info.Strings, count)
	info.Rotated = true
	info.RotationCount = count
}

// hasRotationLoopShape looks for `var r = function(n){ while(--n){
// arrParam.push(arrParam.shift()); } };` somewhere in body.
func hasRotationLoopShape(body *ast.BlockStatement, arrParam string) bool {
	for _, stmt := range body.Body {
		decl, ok := stmt.(*ast.VariableDeclaration)
		if !ok {
			continue
		}
		for _, d := range decl.Declarations {
			loopFn, ok := d.Init.(*ast.FunctionExpression)
			if !ok || len(loopFn.Params) != 1 || loopFn.Body == nil {
				continue
			}
			if len(loopFn.Body.Body) != 1 {
				continue
			}
			while, ok := loopFn.Body.Body[0].(*ast.WhileStatement)
			if !ok {
				continue
			}
			counter := loopFn.Params[0]
			test, ok := while.Test.(*ast.UnaryExpression)
			if !ok || test.Operator != "--" {
				continue
			}
			testIdent, ok := test.Argument.(*ast.Identifier)
			if !ok || testIdent.Name != counter {
				continue
			}
			if isPushShiftRotation(while.Body, arrParam) {
				return true
			}
		}
	}
	return false
}

func isPushShiftRotation(stmt ast.Statement, arrParam string) bool {
	if block, ok := stmt.(*ast.BlockStatement); ok {
		if len(block.Body) != 1 {
			return false
		}
		stmt = block.Body[0]
	}
	exprStmt, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	pushCall, ok := exprStmt.Expression.(*ast.CallExpression)
	if !ok || len(pushCall.Arguments) != 1 {
		return false
	}
	pushMember, ok := pushCall.Callee.(*ast.StaticMemberExpression)
	if !ok || pushMember.Property != "push" {
		return false
	}
	pushObj, ok := pushMember.Object.(*ast.Identifier)
	if !ok || pushObj.Name != arrParam {
		return false
	}
	shiftCall, ok := pushCall.Arguments[0].(*ast.CallExpression)
	if !ok || len(shiftCall.Arguments) != 0 {
		return false
	}
	shiftMember, ok := shiftCall.Callee.(*ast.StaticMemberExpression)
	if !ok || shiftMember.Property != "shift" {
		return false
	}
	shiftObj, ok := shiftMember.Object.(*ast.Identifier)
	return ok && shiftObj.Name == arrParam
}

// matchDecoder matches `function name(idx){ return arr[idx]; }` or the
// offset-adjusted `return arr[idx - k]` / `return arr[idx + k]` forms.
func matchDecoder(fn *ast.FunctionDeclaration, st *state.State) (*state.DecoderInfo, bool) {
	if len(fn.Params) != 1 || fn.Body == nil {
		return nil, false
	}
	param := fn.Params[0]

	// Two statement forms are recognized: a bare `return N[p];` (or its
	// inline-offset variant `return N[p - C];`/`return N[p + C];`), and the
	// preceding-adjustment form spec.md §4.2.1 names separately: `p = p -
	// C; return N[p];`. Both describe the same decoder; the offset just
	// lives in a different place in the syntax.
	body := fn.Body.Body
	offset := 0
	offsetOp := state.OffsetNone
	switch len(body) {
	case 1:
		// handled below via the return statement's member property.
	case 2:
		assignOffset, assignOp, ok := matchPrecedingOffsetAssignment(body[0], param)
		if !ok {
			return nil, false
		}
		offset, offsetOp = assignOffset, assignOp
	default:
		return nil, false
	}

	ret, ok := body[len(body)-1].(*ast.ReturnStatement)
	if !ok || ret.Argument == nil {
		return nil, false
	}
	member, ok := ret.Argument.(*ast.ComputedMemberExpression)
	if !ok {
		return nil, false
	}
	arrIdent, ok := member.Object.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	if _, known := st.StringArrays[arrIdent.Name]; !known {
		return nil, false
	}

	if offsetOp != state.OffsetNone {
		// The preceding-assignment form: the return must index by the bare
		// (already-adjusted) parameter.
		ident, ok := member.Property.(*ast.Identifier)
		if !ok || ident.Name != param {
			return nil, false
		}
		return &state.DecoderInfo{FunctionName: fn.Id, ArrayName: arrIdent.Name, Offset: offset, OffsetOperation: offsetOp}, true
	}

	switch prop := member.Property.(type) {
	case *ast.Identifier:
		if prop.Name != param {
			return nil, false
		}
		return &state.DecoderInfo{FunctionName: fn.Id, ArrayName: arrIdent.Name, OffsetOperation: state.OffsetNone}, true

	case *ast.BinaryExpression:
		left, ok := prop.Left.(*ast.Identifier)
		if !ok || left.Name != param {
			return nil, false
		}
		num, ok := prop.Right.(*ast.NumericLiteral)
		if !ok {
			return nil, false
		}
		switch prop.Operator {
		case "-":
			return &state.DecoderInfo{FunctionName: fn.Id, ArrayName: arrIdent.Name, Offset: int(num.Value), OffsetOperation: state.OffsetSubtract}, true
		case "+":
			return &state.DecoderInfo{FunctionName: fn.Id, ArrayName: arrIdent.Name, Offset: int(num.Value), OffsetOperation: state.OffsetAdd}, true
		}
	}
	return nil, false
}

// matchPrecedingOffsetAssignment matches `param = param - C;` or `param =
// param + C;` as the statement immediately preceding a decoder's return.
func matchPrecedingOffsetAssignment(stmt ast.Statement, param string) (int, state.OffsetOperation, bool) {
	exprStmt, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return 0, state.OffsetNone, false
	}
	assign, ok := exprStmt.Expression.(*ast.AssignmentExpression)
	if !ok || assign.Operator != "=" {
		return 0, state.OffsetNone, false
	}
	target, ok := assign.Left.(*ast.Identifier)
	if !ok || target.Name != param {
		return 0, state.OffsetNone, false
	}
	bin, ok := assign.Right.(*ast.BinaryExpression)
	if !ok {
		return 0, state.OffsetNone, false
	}
	left, ok := bin.Left.(*ast.Identifier)
	if !ok || left.Name != param {
		return 0, state.OffsetNone, false
	}
	num, ok := bin.Right.(*ast.NumericLiteral)
	if !ok {
		return 0, state.OffsetNone, false
	}
	switch bin.Operator {
	case "-":
		return int(num.Value), state.OffsetSubtract, true
	case "+":
		return int(num.Value), state.OffsetAdd, true
	}
	return 0, state.OffsetNone, false
}

func parseIntLiteral(expr ast.Expression) (int, bool) {
	num, ok := expr.(*ast.NumericLiteral)
	if !ok {
		return 0, false
	}
	return int(num.Value), true
}

// rotateLeft returns strs with its first count elements moved to the end,
// the net effect of count repetitions of `arr.push(arr.shift())`.
func rotateLeft(strs []string, count int) []string {
	n := len(strs)
	if n == 0 {
		return strs
	}
	count = ((count % n) + n) % n
	out := make([]string, 0, n)
	out = append(out, strs[count:]...)
	out = append(out, strs[:count]...)
	return out
}
