// Package codegen renders a core/ast tree back to ECMAScript source text.
// It makes no attempt to preserve the original formatting — spec.md §6 only
// requires the emitted text to parse back to an equivalent tree, not to
// match whitespace — so it always emits one canonical style: tabs for
// indentation, one statement per line, semicolons everywhere a statement
// needs one. Grounded in the teacher's core/planfmt/formatter/text.go (a
// switch-on-node-kind recursive formatter built on strings.Builder).
package codegen

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/deobf/core/ast"
)

// Generate renders prog as ECMAScript source text.
func Generate(prog *ast.Program) string {
	var b strings.Builder
	w := &writer{b: &b}
	for _, stmt := range prog.Body {
		w.writeStatement(stmt, 0)
	}
	return b.String()
}

type writer struct {
	b *strings.Builder
}

func (w *writer) indent(depth int) {
	for i := 0; i < depth; i++ {
		w.b.WriteByte('\t')
	}
}

func (w *writer) writeStatement(stmt ast.Statement, depth int) {
	w.indent(depth)
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		fmt.Fprintf(w.b, "%s %s;\n", s.Kind, formatDeclarators(s.Declarations))
	case *ast.ExpressionStatement:
		fmt.Fprintf(w.b, "%s;\n", formatExpr(s.Expression))
	case *ast.BlockStatement:
		w.writeBlockInline(s, depth)
	case *ast.FunctionDeclaration:
		fmt.Fprintf(w.b, "%sfunction %s(%s) ", asyncPrefix(s.Async, s.Generator), s.Id, strings.Join(s.Params, ", "))
		w.writeBlockInline(s.Body, depth)
	case *ast.ReturnStatement:
		if s.Argument == nil {
			w.b.WriteString("return;\n")
		} else {
			fmt.Fprintf(w.b, "return %s;\n", formatExpr(s.Argument))
		}
	case *ast.TryStatement:
		w.writeTry(s, depth)
	case *ast.ForStatement:
		w.writeFor(s, depth)
	case *ast.ForInStatement:
		w.writeForIn(s, depth)
	case *ast.WhileStatement:
		fmt.Fprintf(w.b, "while (%s) ", formatExpr(s.Test))
		w.writeBodyInline(s.Body, depth)
	case *ast.EmptyStatement:
		w.b.WriteString(";\n")
	default:
		fmt.Fprintf(w.b, "/* unknown statement %T */;\n", stmt)
	}
}

func asyncPrefix(async, generator bool) string {
	prefix := ""
	if async {
		prefix += "async "
	}
	if generator {
		prefix += "*"
	}
	return prefix
}

// writeBlockInline writes `{ ... }` without a leading indent (the caller has
// already written it) and recurses into the block's statements at depth+1.
func (w *writer) writeBlockInline(block *ast.BlockStatement, depth int) {
	if block == nil || len(block.Body) == 0 {
		w.b.WriteString("{}\n")
		return
	}
	w.b.WriteString("{\n")
	for _, stmt := range block.Body {
		w.writeStatement(stmt, depth+1)
	}
	w.indent(depth)
	w.b.WriteString("}\n")
}

// writeBodyInline handles a loop/if body that may be a single statement or a
// block, per ECMAScript grammar (`while (x) foo();` is legal without braces).
func (w *writer) writeBodyInline(body ast.Statement, depth int) {
	if block, ok := body.(*ast.BlockStatement); ok {
		w.writeBlockInline(block, depth)
		return
	}
	w.b.WriteString("\n")
	w.writeStatement(body, depth+1)
}

func (w *writer) writeTry(s *ast.TryStatement, depth int) {
	w.b.WriteString("try ")
	w.writeBlockInline(s.Block, depth)
	if s.Handler != nil {
		w.indent(depth)
		if s.Handler.Param != "" {
			fmt.Fprintf(w.b, "catch (%s) ", s.Handler.Param)
		} else {
			w.b.WriteString("catch ")
		}
		w.writeBlockInline(s.Handler.Body, depth)
	}
	if s.Finalizer != nil {
		w.indent(depth)
		w.b.WriteString("finally ")
		w.writeBlockInline(s.Finalizer, depth)
	}
}

func (w *writer) writeFor(s *ast.ForStatement, depth int) {
	init := ""
	if decl, ok := s.Init.(*ast.VariableDeclaration); ok {
		init = fmt.Sprintf("%s %s", decl.Kind, formatDeclarators(decl.Declarations))
	} else if expr, ok := s.Init.(ast.Expression); ok {
		init = formatExpr(expr)
	}
	test, update := "", ""
	if s.Test != nil {
		test = formatExpr(s.Test)
	}
	if s.Update != nil {
		update = formatExpr(s.Update)
	}
	fmt.Fprintf(w.b, "for (%s; %s; %s) ", init, test, update)
	w.writeBodyInline(s.Body, depth)
}

func (w *writer) writeForIn(s *ast.ForInStatement, depth int) {
	kw := "in"
	if s.Of {
		kw = "of"
	}
	left := ""
	if decl, ok := s.Left.(*ast.VariableDeclaration); ok {
		left = fmt.Sprintf("%s %s", decl.Kind, decl.Declarations[0].Name)
	} else if expr, ok := s.Left.(ast.Expression); ok {
		left = formatExpr(expr)
	}
	fmt.Fprintf(w.b, "for (%s %s %s) ", left, kw, formatExpr(s.Right))
	w.writeBodyInline(s.Body, depth)
}

func formatDeclarators(decls []ast.VariableDeclarator) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		if d.Init == nil {
			parts[i] = d.Name
		} else {
			parts[i] = fmt.Sprintf("%s = %s", d.Name, formatExprAt(d.Init, precAssignment))
		}
	}
	return strings.Join(parts, ", ")
}

// Operator precedence levels, lowest to highest, mirroring the grammar
// pkg/parser/parser.go's precedence table encodes for parsing. formatExpr
// uses this to decide when a subexpression needs parens it has no
// ParenthesizedExpression node for — anything a transform pass synthesized
// rather than parsed, e.g. strength-reduction's shift/mask replacements or
// array-unpack lifting an element out of its enclosing array literal.
const (
	precSequence = iota
	precAssignment
	precConditional
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precCallMember
	precPrimary
)

func binaryPrecedence(op string) int {
	switch op {
	case "||":
		return precLogicalOr
	case "&&":
		return precLogicalAnd
	case "|":
		return precBitwiseOr
	case "^":
		return precBitwiseXor
	case "&":
		return precBitwiseAnd
	case "==", "!=", "===", "!==":
		return precEquality
	case "<", ">", "<=", ">=":
		return precRelational
	case "<<", ">>":
		return precShift
	case "+", "-":
		return precAdditive
	case "*", "/", "%":
		return precMultiplicative
	default:
		return precPrimary
	}
}

// exprPrecedence reports the precedence of expr's outermost operator. Nodes
// that are always self-delimiting (literals, identifiers, calls, members,
// parenthesized expressions, array/object literals) report precPrimary,
// since they never need wrapping regardless of context.
func exprPrecedence(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.SequenceExpression:
		return precSequence
	case *ast.AssignmentExpression:
		return precAssignment
	case *ast.ArrowFunctionExpression:
		return precAssignment
	case *ast.ConditionalExpression:
		return precConditional
	case *ast.BinaryExpression:
		return binaryPrecedence(e.Operator)
	case *ast.UnaryExpression:
		if !e.Prefix {
			return precPostfix
		}
		return precUnary
	default:
		return precPrimary
	}
}

// formatExprAt renders expr as it would appear in a position that requires
// at least minPrec to parse unambiguously, wrapping it in literal parens
// when its own precedence falls short.
func formatExprAt(expr ast.Expression, minPrec int) string {
	s := formatExpr(expr)
	if exprPrecedence(expr) < minPrec {
		return "(" + s + ")"
	}
	return s
}

// formatExpr renders one expression to text. Binary, unary, conditional,
// assignment, member, and call operands are rendered through formatExprAt
// so a subexpression of lower precedence than its position requires always
// gets parenthesized, whether or not the parser ever recorded an explicit
// ParenthesizedExpression there.
func formatExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.NumericLiteral:
		return e.String()
	case *ast.StringLiteral:
		return formatStringLiteral(e.Value)
	case *ast.BooleanLiteral:
		return e.String()
	case *ast.NullLiteral:
		return "null"
	case *ast.ArrayExpression:
		return formatArray(e)
	case *ast.ObjectExpression:
		return formatObject(e)
	case *ast.StaticMemberExpression:
		return fmt.Sprintf("%s.%s", formatExprAt(e.Object, precCallMember), e.Property)
	case *ast.ComputedMemberExpression:
		return fmt.Sprintf("%s[%s]", formatExprAt(e.Object, precCallMember), formatExpr(e.Property))
	case *ast.CallExpression:
		return formatCall(e)
	case *ast.BinaryExpression:
		return formatBinary(e)
	case *ast.UnaryExpression:
		return formatUnary(e)
	case *ast.ConditionalExpression:
		return formatConditional(e)
	case *ast.SequenceExpression:
		parts := make([]string, len(e.Expressions))
		for i, sub := range e.Expressions {
			parts[i] = formatExprAt(sub, precAssignment)
		}
		return strings.Join(parts, ", ")
	case *ast.AssignmentExpression:
		return fmt.Sprintf("%s %s %s", formatExprAt(e.Left, precCallMember), e.Operator, formatExprAt(e.Right, precAssignment))
	case *ast.ParenthesizedExpression:
		return fmt.Sprintf("(%s)", formatExpr(e.Expression))
	case *ast.FunctionExpression:
		return formatFunctionExpr(e)
	case *ast.ArrowFunctionExpression:
		return formatArrow(e)
	default:
		return fmt.Sprintf("/* unknown expr %T */", expr)
	}
}

// formatBinary renders a binary expression with both operands parenthesized
// wherever their own precedence is too low to survive re-parsing in that
// position — the right operand strictly so, since `a - (b - c)` and
// `a - b - c` are not the same program.
func formatBinary(e *ast.BinaryExpression) string {
	prec := binaryPrecedence(e.Operator)
	left := formatExprAt(e.Left, prec)
	right := formatExprAt(e.Right, prec+1)
	return fmt.Sprintf("%s %s %s", left, e.Operator, right)
}

func formatConditional(e *ast.ConditionalExpression) string {
	test := formatExprAt(e.Test, precConditional+1)
	cons := formatExprAt(e.Consequent, precAssignment)
	alt := formatExprAt(e.Alternate, precAssignment)
	return fmt.Sprintf("%s ? %s : %s", test, cons, alt)
}

func formatStringLiteral(value string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range value {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatArray(arr *ast.ArrayExpression) string {
	parts := make([]string, len(arr.Elements))
	for i, el := range arr.Elements {
		switch {
		case el.Elision:
			parts[i] = ""
		case el.Spread:
			parts[i] = "..." + formatExprAt(el.Expression, precAssignment)
		default:
			parts[i] = formatExprAt(el.Expression, precAssignment)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatObject(obj *ast.ObjectExpression) string {
	parts := make([]string, len(obj.Properties))
	for i, prop := range obj.Properties {
		key := prop.Key
		if prop.Computed {
			key = "[" + prop.Key + "]"
		} else if !isValidIdentifierKey(key) {
			key = formatStringLiteral(key)
		}
		parts[i] = fmt.Sprintf("%s: %s", key, formatExprAt(prop.Value, precAssignment))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func isValidIdentifierKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if i > 0 && !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

func formatCall(call *ast.CallExpression) string {
	args := make([]string, len(call.Arguments))
	for i, a := range call.Arguments {
		args[i] = formatExprAt(a, precAssignment)
	}
	return fmt.Sprintf("%s(%s)", formatExprAt(call.Callee, precCallMember), strings.Join(args, ", "))
}

func formatUnary(u *ast.UnaryExpression) string {
	switch u.Operator {
	case "++", "--":
		if u.Prefix {
			return u.Operator + formatExprAt(u.Argument, precUnary)
		}
		return formatExprAt(u.Argument, precCallMember) + u.Operator
	case "void":
		return "void " + formatExprAt(u.Argument, precUnary)
	default:
		return u.Operator + formatExprAt(u.Argument, precUnary)
	}
}

func formatFunctionExpr(fn *ast.FunctionExpression) string {
	name := ""
	if fn.Id != nil {
		name = " " + fn.Id.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%sfunction%s(%s) ", asyncPrefix(fn.Async, fn.Generator), name, strings.Join(fn.Params, ", "))
	w := &writer{b: &b}
	w.writeBlockInline(fn.Body, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func formatArrow(fn *ast.ArrowFunctionExpression) string {
	params := fmt.Sprintf("(%s)", strings.Join(fn.Params, ", "))
	prefix := ""
	if fn.Async {
		prefix = "async "
	}
	if fn.ExprBody != nil {
		return fmt.Sprintf("%s%s => %s", prefix, params, formatExpr(fn.ExprBody))
	}
	var b strings.Builder
	w := &writer{b: &b}
	w.writeBlockInline(fn.Body, 0)
	return fmt.Sprintf("%s%s => %s", prefix, params, strings.TrimSuffix(b.String(), "\n"))
}
