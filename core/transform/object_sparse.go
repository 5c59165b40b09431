package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// objectSparsingPass consolidates `var obj = {}; obj.a = 1; obj.b = "x";`
// into `var obj = {a: 1, b: "x"};`, provided the assignments immediately
// follow the declaration and each assigns a literal or a plain identifier
// reference (never a call or anything else with side effects, since folding
// those would change evaluation order). Grounded in
// ast_deobfuscate/object_sparsing.rs.
func objectSparsingPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitStmtList: func(list []ast.Statement, st *state.State) ([]ast.Statement, bool) {
			changed := false
			out := make([]ast.Statement, 0, len(list))
			i := 0
			for i < len(list) {
				decl, ok := list[i].(*ast.VariableDeclaration)
				if !ok || len(decl.Declarations) != 1 || !ast.IsEmptyObject(declInit(decl)) {
					out = append(out, list[i])
					i++
					continue
				}
				varName := decl.Declarations[0].Name

				var props []ast.ObjectProperty
				j := i + 1
				for j < len(list) {
					key, value, ok := matchPropertyAssignment(list[j], varName)
					if !ok {
						break
					}
					props = append(props, ast.ObjectProperty{Key: key, Value: value})
					j++
				}

				if len(props) == 0 {
					out = append(out, list[i])
					i++
					continue
				}

				decl.Declarations[0].Init = a.NewObjectExpression(props)
				out = append(out, decl)
				changed = true
				i = j
			}
			if !changed {
				return nil, false
			}
			return out, true
		},
	}
}

func declInit(decl *ast.VariableDeclaration) ast.Expression {
	if len(decl.Declarations) != 1 || decl.Declarations[0].Init == nil {
		return nil
	}
	return decl.Declarations[0].Init
}

func matchPropertyAssignment(stmt ast.Statement, varName string) (string, ast.Expression, bool) {
	exprStmt, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return "", nil, false
	}
	assign, ok := exprStmt.Expression.(*ast.AssignmentExpression)
	if !ok || assign.Operator != "=" {
		return "", nil, false
	}
	member, ok := assign.Left.(*ast.StaticMemberExpression)
	if !ok {
		return "", nil, false
	}
	obj, ok := member.Object.(*ast.Identifier)
	if !ok || obj.Name != varName {
		return "", nil, false
	}
	switch assign.Right.(type) {
	case *ast.NumericLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.Identifier:
		return member.Property, assign.Right, true
	}
	return "", nil, false
}
