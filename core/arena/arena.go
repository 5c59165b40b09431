// Package arena provides the scoped node allocator described in spec.md §3
// and §9: every node a rewrite pass synthesizes comes from an arena whose
// lifetime is tied to a single deobfuscation run, so replaced nodes can be
// reasoned about as "owned by this run" without per-node ownership
// bookkeeping. Go's garbage collector reclaims the backing memory on its own
// schedule; the Arena's job is the *convention* (all synthesized nodes are
// constructed through it, and it refuses to hand out nodes once the run it
// belongs to has ended), not manual freeing.
package arena

import (
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/invariant"
)

// Arena is a scoped allocator for one deobfuscation run. Every node a
// rewrite pass synthesizes is constructed through it. Passes that move an
// existing child into its parent's slot (array-unpack, ternary, try/catch
// unwrap) install that node as it is, and the call-proxy inliner renames the
// existing callee identifier in place; neither is allocated here.
type Arena struct {
	allocations int
	closed      bool
}

// New returns an open arena.
func New() *Arena {
	return &Arena{}
}

// Close ends the arena's lifetime. Passes must not allocate from a closed
// arena; this is the run-end "reclaim in bulk" boundary spec.md §9
// describes.
func (a *Arena) Close() {
	a.closed = true
}

// Allocations reports how many nodes this arena has produced. Useful for
// tests asserting that a pass actually synthesized replacements.
func (a *Arena) Allocations() int { return a.allocations }

func (a *Arena) track() {
	invariant.Precondition(!a.closed, "arena: allocation requested after Close")
	a.allocations++
}

// NewIdentifier allocates a synthesized identifier reference.
func (a *Arena) NewIdentifier(name string) *ast.Identifier {
	a.track()
	return &ast.Identifier{Name: name, Pos: ast.Synthetic}
}

// NewStringLiteral allocates a synthesized string literal.
func (a *Arena) NewStringLiteral(value string) *ast.StringLiteral {
	a.track()
	return &ast.StringLiteral{Value: value, Pos: ast.Synthetic}
}

// NewNumericLiteral allocates a synthesized numeric literal.
func (a *Arena) NewNumericLiteral(value float64) *ast.NumericLiteral {
	a.track()
	return &ast.NumericLiteral{Value: value, Pos: ast.Synthetic}
}

// NewBooleanLiteral allocates a synthesized boolean literal.
func (a *Arena) NewBooleanLiteral(value bool) *ast.BooleanLiteral {
	a.track()
	return &ast.BooleanLiteral{Value: value, Pos: ast.Synthetic}
}

// NewBinaryExpression allocates a synthesized binary expression.
func (a *Arena) NewBinaryExpression(op string, left, right ast.Expression) *ast.BinaryExpression {
	a.track()
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right, Pos: ast.Synthetic}
}

// NewStaticMemberExpression allocates a synthesized static member access.
func (a *Arena) NewStaticMemberExpression(object ast.Expression, property string) *ast.StaticMemberExpression {
	a.track()
	return &ast.StaticMemberExpression{Object: object, Property: property, Pos: ast.Synthetic}
}

// NewCallExpression allocates a synthesized call expression.
func (a *Arena) NewCallExpression(callee ast.Expression, args []ast.Expression) *ast.CallExpression {
	a.track()
	return &ast.CallExpression{Callee: callee, Arguments: args, Pos: ast.Synthetic}
}

// NewObjectExpression allocates a synthesized object literal.
func (a *Arena) NewObjectExpression(props []ast.ObjectProperty) *ast.ObjectExpression {
	a.track()
	return &ast.ObjectExpression{Properties: props, Pos: ast.Synthetic}
}

// NewEmptyStatement allocates a synthesized empty statement.
func (a *Arena) NewEmptyStatement() *ast.EmptyStatement {
	a.track()
	return &ast.EmptyStatement{Pos: ast.Synthetic}
}

// NewExpressionStatement allocates a synthesized expression statement.
func (a *Arena) NewExpressionStatement(expr ast.Expression) *ast.ExpressionStatement {
	a.track()
	return &ast.ExpressionStatement{Expression: expr, Pos: ast.Synthetic}
}

// NewBlockStatement allocates a synthesized block.
func (a *Arena) NewBlockStatement(body []ast.Statement) *ast.BlockStatement {
	a.track()
	return &ast.BlockStatement{Body: body, Pos: ast.Synthetic}
}
