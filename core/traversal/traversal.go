// Package traversal implements the mutating visitor described in spec.md
// §4.1: every local rewrite pass is one of these visitors, installed with
// hooks for the node kinds it cares about. A hook receives the current node
// and may replace it in place; traversal writes the replacement back into
// the addressable slot it came from (a struct field or slice element) so the
// parent never holds a stale pointer. A hook-installed replacement is never
// revisited within the same walk — traversal calls a node's hooks once, on
// its way back out (post-order), and does not re-descend into whatever a
// hook just installed.
package traversal

import (
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
)

// BindingKind distinguishes the declaration forms EnterBindingIdentifier
// fires on — the hex-identifier rename pass (spec.md §4.3.11) keeps
// separate var_N / func_N counters and needs to tell them apart.
type BindingKind int

const (
	BindingVariable BindingKind = iota
	BindingFunction
)

// Hooks is the set of callbacks one pass registers. Every field is
// optional; a nil hook means the pass doesn't touch that node kind. The
// bool the Exit* hooks return means "I replaced this" — traversal uses it to
// set state.State.Changed, which is how the orchestrator (core/transform)
// decides whether another outer iteration is needed (spec.md §4.4, §4.6).
// The identifier hooks return a name, not a bool; traversal installs it
// and does not set Changed for it.
type Hooks struct {
	// ExitExpr fires on every expression, after its children have already
	// been walked. Returning a non-nil replacement and true installs it in
	// the slot the original expression occupied.
	ExitExpr func(ast.Expression, *state.State) (ast.Expression, bool)

	// ExitStmt fires on every statement, after its children have been
	// walked, for passes that replace one statement with another (the
	// try/catch unwrap collapsing a TryStatement into its lone surviving
	// statement, for instance).
	ExitStmt func(ast.Statement, *state.State) (ast.Statement, bool)

	// ExitStmtList fires once per statement list — a Program body, a
	// BlockStatement body, a function body — after every statement in it
	// has already been walked individually. This is the hook list-shaped
	// rewrites use: splitting a sequence expression into several
	// statements, dropping EmptyStatements, consolidating a run of
	// property assignments into the object literal that precedes them.
	ExitStmtList func([]ast.Statement, *state.State) ([]ast.Statement, bool)

	// EnterBindingIdentifier fires on every declared name: a `var` name,
	// a named function declaration or expression's own name. It does not
	// fire on function parameters — the hex-identifier rename pass
	// (spec.md §4.3.11) only renames variable and function bindings.
	EnterBindingIdentifier func(name string, kind BindingKind, st *state.State) string

	// EnterIdentifierRef fires on every Identifier used in expression
	// position (a reference, not a binding).
	EnterIdentifierRef func(name string, st *state.State) string
}

// WalkProgram runs one pass over an entire program in place.
func WalkProgram(prog *ast.Program, hooks Hooks, st *state.State) {
	prog.Body = walkStmtList(prog.Body, hooks, st)
}

func walkStmtList(list []ast.Statement, hooks Hooks, st *state.State) []ast.Statement {
	for i := range list {
		walkStmt(&list[i], hooks, st)
	}
	if hooks.ExitStmtList != nil {
		if replaced, changed := hooks.ExitStmtList(list, st); changed {
			st.Changed = true
			return replaced
		}
	}
	return list
}

func walkStmt(slot *ast.Statement, hooks Hooks, st *state.State) {
	switch s := (*slot).(type) {
	case *ast.VariableDeclaration:
		for i := range s.Declarations {
			d := &s.Declarations[i]
			if hooks.EnterBindingIdentifier != nil {
				d.Name = hooks.EnterBindingIdentifier(d.Name, BindingVariable, st)
			}
			if d.Init != nil {
				walkExpr(&d.Init, hooks, st)
			}
		}

	case *ast.ExpressionStatement:
		walkExpr(&s.Expression, hooks, st)

	case *ast.BlockStatement:
		s.Body = walkStmtList(s.Body, hooks, st)

	case *ast.FunctionDeclaration:
		if hooks.EnterBindingIdentifier != nil {
			s.Id = hooks.EnterBindingIdentifier(s.Id, BindingFunction, st)
		}
		if s.Body != nil {
			s.Body.Body = walkStmtList(s.Body.Body, hooks, st)
		}

	case *ast.ReturnStatement:
		if s.Argument != nil {
			walkExpr(&s.Argument, hooks, st)
		}

	case *ast.TryStatement:
		s.Block.Body = walkStmtList(s.Block.Body, hooks, st)
		if s.Handler != nil && s.Handler.Body != nil {
			s.Handler.Body.Body = walkStmtList(s.Handler.Body.Body, hooks, st)
		}
		if s.Finalizer != nil {
			s.Finalizer.Body = walkStmtList(s.Finalizer.Body, hooks, st)
		}

	case *ast.ForStatement:
		// Deliberately still walked for renaming/strength-reduction/etc:
		// only the sequence-expression-split pass skips for-init
		// (spec.md §4.3.10, S4), and it does that by not registering
		// behavior for it, not by traversal skipping the node.
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			for i := range init.Declarations {
				d := &init.Declarations[i]
				if hooks.EnterBindingIdentifier != nil {
					d.Name = hooks.EnterBindingIdentifier(d.Name, BindingVariable, st)
				}
				if d.Init != nil {
					walkExpr(&d.Init, hooks, st)
				}
			}
		case ast.Expression:
			walkExpr(&init, hooks, st)
			s.Init = init
		}
		if s.Test != nil {
			walkExpr(&s.Test, hooks, st)
		}
		if s.Update != nil {
			walkExpr(&s.Update, hooks, st)
		}
		walkStmt(&s.Body, hooks, st)

	case *ast.ForInStatement:
		switch left := s.Left.(type) {
		case *ast.VariableDeclaration:
			for i := range left.Declarations {
				d := &left.Declarations[i]
				if hooks.EnterBindingIdentifier != nil {
					d.Name = hooks.EnterBindingIdentifier(d.Name, BindingVariable, st)
				}
			}
		case ast.Expression:
			walkExpr(&left, hooks, st)
			s.Left = left
		}
		walkExpr(&s.Right, hooks, st)
		walkStmt(&s.Body, hooks, st)

	case *ast.WhileStatement:
		walkExpr(&s.Test, hooks, st)
		walkStmt(&s.Body, hooks, st)

	case *ast.EmptyStatement:
		// leaf

	case *ast.Program:
		// Only reachable if a pass stores a nested Program, which never
		// happens; WalkProgram handles the real root directly.
	}

	if hooks.ExitStmt != nil {
		if replacement, changed := hooks.ExitStmt(*slot, st); changed {
			*slot = replacement
			st.Changed = true
		}
	}
}

func walkExpr(slot *ast.Expression, hooks Hooks, st *state.State) {
	switch e := (*slot).(type) {
	case *ast.Identifier:
		if hooks.EnterIdentifierRef != nil {
			e.Name = hooks.EnterIdentifierRef(e.Name, st)
		}

	case *ast.ArrayExpression:
		for i := range e.Elements {
			if e.Elements[i].Expression != nil {
				walkExpr(&e.Elements[i].Expression, hooks, st)
			}
		}

	case *ast.ObjectExpression:
		for i := range e.Properties {
			if e.Properties[i].Value != nil {
				walkExpr(&e.Properties[i].Value, hooks, st)
			}
		}

	case *ast.StaticMemberExpression:
		walkExpr(&e.Object, hooks, st)

	case *ast.ComputedMemberExpression:
		walkExpr(&e.Object, hooks, st)
		walkExpr(&e.Property, hooks, st)

	case *ast.CallExpression:
		walkExpr(&e.Callee, hooks, st)
		for i := range e.Arguments {
			walkExpr(&e.Arguments[i], hooks, st)
		}

	case *ast.BinaryExpression:
		walkExpr(&e.Left, hooks, st)
		walkExpr(&e.Right, hooks, st)

	case *ast.UnaryExpression:
		walkExpr(&e.Argument, hooks, st)

	case *ast.ConditionalExpression:
		walkExpr(&e.Test, hooks, st)
		walkExpr(&e.Consequent, hooks, st)
		walkExpr(&e.Alternate, hooks, st)

	case *ast.SequenceExpression:
		for i := range e.Expressions {
			walkExpr(&e.Expressions[i], hooks, st)
		}

	case *ast.AssignmentExpression:
		walkExpr(&e.Left, hooks, st)
		walkExpr(&e.Right, hooks, st)

	case *ast.ParenthesizedExpression:
		walkExpr(&e.Expression, hooks, st)

	case *ast.FunctionExpression:
		if e.Id != nil && hooks.EnterBindingIdentifier != nil {
			e.Id.Name = hooks.EnterBindingIdentifier(e.Id.Name, BindingFunction, st)
		}
		if e.Body != nil {
			e.Body.Body = walkStmtList(e.Body.Body, hooks, st)
		}

	case *ast.ArrowFunctionExpression:
		if e.Body != nil {
			e.Body.Body = walkStmtList(e.Body.Body, hooks, st)
		}
		if e.ExprBody != nil {
			walkExpr(&e.ExprBody, hooks, st)
		}

		// *ast.StringLiteral, *ast.NumericLiteral, *ast.BooleanLiteral,
		// *ast.NullLiteral carry no children.
	}

	if hooks.ExitExpr != nil {
		if replacement, changed := hooks.ExitExpr(*slot, st); changed {
			*slot = replacement
			st.Changed = true
		}
	}
}
