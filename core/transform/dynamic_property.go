package transform

import (
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// dynamicPropertyPass folds `obj["name"]`, `obj[97]` (a character code),
// and concatenations of those (`obj["pro"+"perty"]`) to static member
// access (`obj.name`) whenever the resolved name is a valid identifier.
// `obj[variable]` and out-of-range or invalid-identifier results are left
// alone. Grounded in ast_deobfuscate/dynamic_property.rs.
func dynamicPropertyPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			member, ok := expr.(*ast.ComputedMemberExpression)
			if !ok {
				return nil, false
			}
			name, ok := extractPropertyName(member.Property)
			if !ok || !isValidIdentifierName(name) {
				return nil, false
			}
			return a.NewStaticMemberExpression(member.Object, name), true
		},
	}
}

func extractPropertyName(expr ast.Expression) (string, bool) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return e.Value, true
	case *ast.NumericLiteral:
		if e.Value < 0 || e.Value > 127 || e.Value != float64(int(e.Value)) {
			return "", false
		}
		return string(rune(int(e.Value))), true
	case *ast.BinaryExpression:
		if e.Operator != "+" {
			return "", false
		}
		left, ok := extractPropertyName(e.Left)
		if !ok {
			return "", false
		}
		right, ok := extractPropertyName(e.Right)
		if !ok {
			return "", false
		}
		return left + right, true
	case *ast.ParenthesizedExpression:
		return extractPropertyName(e.Expression)
	}
	return "", false
}

func isValidIdentifierName(name string) bool {
	if len(name) == 0 || len(name) > 100 {
		return false
	}
	for i, r := range name {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			if !isAlpha {
				return false
			}
		} else if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}
