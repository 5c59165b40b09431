// Package ast defines the in-memory syntax tree the deobfuscation pipeline
// operates on: a standard ECMAScript node set, restricted to the shapes the
// recognized obfuscation patterns touch (see spec.md §3).
package ast

import "fmt"

// Position is a source span, opaque to the core. Synthesized nodes carry
// the Synthetic sentinel rather than aliasing a real source position.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Synthetic is the sentinel span installed on every node the pipeline
// manufactures. Consumers (printers, diagnostics) must tolerate it.
var Synthetic = Position{Line: -1, Column: -1, Offset: -1}

func (p Position) IsSynthetic() bool { return p == Synthetic }

// Node is any tree node.
type Node interface {
	Position() Position
	String() string
}

// Expression is any node that can appear where a value is expected.
type Expression interface {
	Node
	exprNode()
}

// Statement is any node that can appear in a statement list.
type Statement interface {
	Node
	stmtNode()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type Identifier struct {
	Name string
	Pos  Position
}

func (n *Identifier) Position() Position { return n.Pos }
func (n *Identifier) String() string     { return n.Name }
func (*Identifier) exprNode()            {}

type NumericLiteral struct {
	Value float64
	Raw   string // original lexeme, preserved for 0x-hex round-tripping; empty for synthesized nodes
	Pos   Position
}

func (n *NumericLiteral) Position() Position { return n.Pos }
func (n *NumericLiteral) String() string {
	if n.Raw != "" {
		return n.Raw
	}
	return fmt.Sprintf("%g", n.Value)
}
func (*NumericLiteral) exprNode() {}

type StringLiteral struct {
	Value string
	Pos   Position
}

func (n *StringLiteral) Position() Position { return n.Pos }
func (n *StringLiteral) String() string     { return fmt.Sprintf("%q", n.Value) }
func (*StringLiteral) exprNode()            {}

type BooleanLiteral struct {
	Value bool
	Pos   Position
}

func (n *BooleanLiteral) Position() Position { return n.Pos }
func (n *BooleanLiteral) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}
func (*BooleanLiteral) exprNode() {}

type NullLiteral struct {
	Pos Position
}

func (n *NullLiteral) Position() Position { return n.Pos }
func (n *NullLiteral) String() string     { return "null" }
func (*NullLiteral) exprNode()            {}

// ArrayElement is an element slot in an ArrayExpression: nil Expression
// marks an elision (a hole from consecutive commas); Spread marks the
// "...expr" form.
type ArrayElement struct {
	Expression Expression
	Spread     bool
	Elision    bool
}

type ArrayExpression struct {
	Elements []ArrayElement
	Pos      Position
}

func (n *ArrayExpression) Position() Position { return n.Pos }
func (n *ArrayExpression) String() string     { return "[array]" }
func (*ArrayExpression) exprNode()            {}

type ObjectProperty struct {
	Key      string // identifier or string key
	Computed bool
	Value    Expression
}

type ObjectExpression struct {
	Properties []ObjectProperty
	Pos        Position
}

func (n *ObjectExpression) Position() Position { return n.Pos }
func (n *ObjectExpression) String() string     { return "{object}" }
func (*ObjectExpression) exprNode()            {}

// StaticMemberExpression is `object.name`.
type StaticMemberExpression struct {
	Object   Expression
	Property string
	Pos      Position
}

func (n *StaticMemberExpression) Position() Position { return n.Pos }
func (n *StaticMemberExpression) String() string {
	return fmt.Sprintf("%s.%s", n.Object, n.Property)
}
func (*StaticMemberExpression) exprNode() {}

// ComputedMemberExpression is `object[expr]`.
type ComputedMemberExpression struct {
	Object   Expression
	Property Expression
	Pos      Position
}

func (n *ComputedMemberExpression) Position() Position { return n.Pos }
func (n *ComputedMemberExpression) String() string {
	return fmt.Sprintf("%s[%s]", n.Object, n.Property)
}
func (*ComputedMemberExpression) exprNode() {}

type CallExpression struct {
	Callee    Expression
	Arguments []Expression
	Pos       Position
}

func (n *CallExpression) Position() Position { return n.Pos }
func (n *CallExpression) String() string     { return fmt.Sprintf("%s(...)", n.Callee) }
func (*CallExpression) exprNode()            {}

type BinaryExpression struct {
	Operator string
	Left     Expression
	Right    Expression
	Pos      Position
}

func (n *BinaryExpression) Position() Position { return n.Pos }
func (n *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Operator, n.Right)
}
func (*BinaryExpression) exprNode() {}

type UnaryExpression struct {
	Operator string
	Argument Expression
	// Prefix distinguishes ++x/--x/!x (true) from x++/x-- (false). Only
	// the increment/decrement operators ever appear in postfix position;
	// codegen relies on this to place the operator on the right side.
	Prefix bool
	Pos    Position
}

func (n *UnaryExpression) Position() Position { return n.Pos }
func (n *UnaryExpression) String() string {
	if n.Prefix {
		return fmt.Sprintf("%s%s", n.Operator, n.Argument)
	}
	return fmt.Sprintf("%s%s", n.Argument, n.Operator)
}
func (*UnaryExpression) exprNode() {}

type ConditionalExpression struct {
	Test       Expression
	Consequent Expression
	Alternate  Expression
	Pos        Position
}

func (n *ConditionalExpression) Position() Position { return n.Pos }
func (n *ConditionalExpression) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Test, n.Consequent, n.Alternate)
}
func (*ConditionalExpression) exprNode() {}

type SequenceExpression struct {
	Expressions []Expression
	Pos         Position
}

func (n *SequenceExpression) Position() Position { return n.Pos }
func (n *SequenceExpression) String() string      { return "(seq)" }
func (*SequenceExpression) exprNode()             {}

type AssignmentExpression struct {
	Operator string
	Left     Expression
	Right    Expression
	Pos      Position
}

func (n *AssignmentExpression) Position() Position { return n.Pos }
func (n *AssignmentExpression) String() string {
	return fmt.Sprintf("%s %s %s", n.Left, n.Operator, n.Right)
}
func (*AssignmentExpression) exprNode() {}

type ParenthesizedExpression struct {
	Expression Expression
	Pos        Position
}

func (n *ParenthesizedExpression) Position() Position { return n.Pos }
func (n *ParenthesizedExpression) String() string     { return fmt.Sprintf("(%s)", n.Expression) }
func (*ParenthesizedExpression) exprNode()            {}

type FunctionExpression struct {
	Id        *Identifier // nil for anonymous
	Params    []string
	Body      *BlockStatement
	Async     bool
	Generator bool
	Pos       Position
}

func (n *FunctionExpression) Position() Position { return n.Pos }
func (n *FunctionExpression) String() string      { return "function(...)" }
func (*FunctionExpression) exprNode()             {}

type ArrowFunctionExpression struct {
	Params       []string
	Body         *BlockStatement // nil when ExprBody is set
	ExprBody     Expression      // concise body, e.g. `x => x+1`
	Async        bool
	Pos          Position
}

func (n *ArrowFunctionExpression) Position() Position { return n.Pos }
func (n *ArrowFunctionExpression) String() string      { return "(...) => ..." }
func (*ArrowFunctionExpression) exprNode()             {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type Program struct {
	Body []Statement
	Pos  Position
}

func (n *Program) Position() Position { return n.Pos }
func (n *Program) String() string     { return "<program>" }
func (*Program) stmtNode()            {}

type VariableDeclarator struct {
	Name string
	Init Expression // nil if uninitialized
}

type VariableDeclaration struct {
	Kind         string // "var" (the only kind the patterns in scope use)
	Declarations []VariableDeclarator
	Pos          Position
}

func (n *VariableDeclaration) Position() Position { return n.Pos }
func (n *VariableDeclaration) String() string     { return fmt.Sprintf("%s ...;", n.Kind) }
func (*VariableDeclaration) stmtNode()            {}

type ExpressionStatement struct {
	Expression Expression
	Pos        Position
}

func (n *ExpressionStatement) Position() Position { return n.Pos }
func (n *ExpressionStatement) String() string     { return fmt.Sprintf("%s;", n.Expression) }
func (*ExpressionStatement) stmtNode()            {}

type BlockStatement struct {
	Body []Statement
	Pos  Position
}

func (n *BlockStatement) Position() Position { return n.Pos }
func (n *BlockStatement) String() string     { return "{...}" }
func (*BlockStatement) stmtNode()            {}

type FunctionDeclaration struct {
	Id        string
	Params    []string
	Body      *BlockStatement
	Async     bool
	Generator bool
	Pos       Position
}

func (n *FunctionDeclaration) Position() Position { return n.Pos }
func (n *FunctionDeclaration) String() string     { return fmt.Sprintf("function %s(...)", n.Id) }
func (*FunctionDeclaration) stmtNode()            {}

type ReturnStatement struct {
	Argument Expression // nil for bare `return;`
	Pos      Position
}

func (n *ReturnStatement) Position() Position { return n.Pos }
func (n *ReturnStatement) String() string     { return "return ...;" }
func (*ReturnStatement) stmtNode()            {}

type CatchClause struct {
	Param string // may be empty (catch with no binding)
	Body  *BlockStatement
}

type TryStatement struct {
	Block      *BlockStatement
	Handler    *CatchClause // nil if there is no catch
	Finalizer  *BlockStatement // nil if there is no finally
	Pos        Position
}

func (n *TryStatement) Position() Position { return n.Pos }
func (n *TryStatement) String() string     { return "try {...}" }
func (*TryStatement) stmtNode()            {}

// ForStatement covers the classic C-style for(;;) loop. Init may be a
// *VariableDeclaration or a bare Expression (not wrapped in an
// ExpressionStatement); the
// sequence-split pass deliberately does not descend into it (spec.md §4.3,
// S4).
type ForStatement struct {
	Init   Node // *VariableDeclaration, Expression, or nil
	Test   Expression
	Update Expression
	Body   Statement
	Pos    Position
}

func (n *ForStatement) Position() Position { return n.Pos }
func (n *ForStatement) String() string     { return "for (...) ..." }
func (*ForStatement) stmtNode()            {}

// ForInStatement covers both for-in and for-of via the Of flag.
type ForInStatement struct {
	Left  Node // *VariableDeclaration or Expression
	Right Expression
	Body  Statement
	Of    bool
	Pos   Position
}

func (n *ForInStatement) Position() Position { return n.Pos }
func (n *ForInStatement) String() string     { return "for (...) ..." }
func (*ForInStatement) stmtNode()            {}

type EmptyStatement struct {
	Pos Position
}

func (n *EmptyStatement) Position() Position { return n.Pos }
func (n *EmptyStatement) String() string     { return ";" }
func (*EmptyStatement) stmtNode()            {}

// WhileStatement is not one of the node kinds spec.md §3 enumerates for
// general rewriting, but the rotation-IIFE shape the string-array analyzer
// must recognize (spec.md §4.2.1: "a loop that repeatedly performs
// arr.push(arr.shift())") is a `while (--n) { ... }` loop, so the analyzer
// needs somewhere to find it. No rewrite pass replaces a WhileStatement
// itself, but core/traversal still descends into its test and body, so
// expression and statement-list rewrites apply inside it.
type WhileStatement struct {
	Test Expression
	Body Statement
	Pos  Position
}

func (n *WhileStatement) Position() Position { return n.Pos }
func (n *WhileStatement) String() string     { return "while (...) ..." }
func (*WhileStatement) stmtNode()            {}

// ---------------------------------------------------------------------------
// Generic traversal helpers (read-only; the mutating traversal lives in
// core/traversal, which needs addressable slots rather than this interface).
// ---------------------------------------------------------------------------

// Walk visits node and every descendant in pre-order, calling fn on each.
// fn returning false stops descent into that node's children (but sibling
// traversal continues). This is a read-only convenience used by the
// non-local analyzers (core/analyze) and diagnostics; rewriting passes use
// core/traversal's slot-addressable walker instead.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Program:
		for _, s := range v.Body {
			Walk(s, fn)
		}
	case *VariableDeclaration:
		for _, d := range v.Declarations {
			if d.Init != nil {
				Walk(d.Init, fn)
			}
		}
	case *ExpressionStatement:
		Walk(v.Expression, fn)
	case *BlockStatement:
		for _, s := range v.Body {
			Walk(s, fn)
		}
	case *FunctionDeclaration:
		if v.Body != nil {
			Walk(v.Body, fn)
		}
	case *ReturnStatement:
		if v.Argument != nil {
			Walk(v.Argument, fn)
		}
	case *TryStatement:
		Walk(v.Block, fn)
		if v.Handler != nil {
			Walk(v.Handler.Body, fn)
		}
		if v.Finalizer != nil {
			Walk(v.Finalizer, fn)
		}
	case *ForStatement:
		if v.Init != nil {
			if node, ok := v.Init.(Node); ok {
				Walk(node, fn)
			}
		}
		if v.Test != nil {
			Walk(v.Test, fn)
		}
		if v.Update != nil {
			Walk(v.Update, fn)
		}
		Walk(v.Body, fn)
	case *ForInStatement:
		if node, ok := v.Left.(Node); ok {
			Walk(node, fn)
		}
		Walk(v.Right, fn)
		Walk(v.Body, fn)
	case *ArrayExpression:
		for _, e := range v.Elements {
			if e.Expression != nil {
				Walk(e.Expression, fn)
			}
		}
	case *ObjectExpression:
		for _, p := range v.Properties {
			Walk(p.Value, fn)
		}
	case *StaticMemberExpression:
		Walk(v.Object, fn)
	case *ComputedMemberExpression:
		Walk(v.Object, fn)
		Walk(v.Property, fn)
	case *CallExpression:
		Walk(v.Callee, fn)
		for _, a := range v.Arguments {
			Walk(a, fn)
		}
	case *BinaryExpression:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *UnaryExpression:
		Walk(v.Argument, fn)
	case *ConditionalExpression:
		Walk(v.Test, fn)
		Walk(v.Consequent, fn)
		Walk(v.Alternate, fn)
	case *SequenceExpression:
		for _, e := range v.Expressions {
			Walk(e, fn)
		}
	case *AssignmentExpression:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *ParenthesizedExpression:
		Walk(v.Expression, fn)
	case *FunctionExpression:
		if v.Body != nil {
			Walk(v.Body, fn)
		}
	case *ArrowFunctionExpression:
		if v.Body != nil {
			Walk(v.Body, fn)
		}
		if v.ExprBody != nil {
			Walk(v.ExprBody, fn)
		}
	case *WhileStatement:
		Walk(v.Test, fn)
		Walk(v.Body, fn)
	}
}

// IsEmptyObject reports whether expr is the literal `{}`.
func IsEmptyObject(expr Expression) bool {
	obj, ok := expr.(*ObjectExpression)
	return ok && len(obj.Properties) == 0
}
