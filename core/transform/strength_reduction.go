package transform

import (
	"math/bits"

	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// strengthReductionPass rewrites multiplication, division, and modulo by a
// power-of-two integer literal into the equivalent shift or mask: `x*4` to
// `x<<2`, `x/8` to `x>>3`, `x%4` to `x&3`. Any other literal (`x*3`) is left
// alone. Grounded in ast_deobfuscate/strength_reduction.rs.
func strengthReductionPass(a *arena.Arena) traversal.Hooks {
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			bin, ok := expr.(*ast.BinaryExpression)
			if !ok {
				return nil, false
			}
			switch bin.Operator {
			case "*":
				if n, ok := powerOfTwoOperand(bin.Right); ok {
					return a.NewBinaryExpression("<<", bin.Left, a.NewNumericLiteral(float64(log2(n)))), true
				}
				if n, ok := powerOfTwoOperand(bin.Left); ok {
					return a.NewBinaryExpression("<<", bin.Right, a.NewNumericLiteral(float64(log2(n)))), true
				}
			case "/":
				if n, ok := powerOfTwoOperand(bin.Right); ok {
					return a.NewBinaryExpression(">>", bin.Left, a.NewNumericLiteral(float64(log2(n)))), true
				}
			case "%":
				if n, ok := powerOfTwoOperand(bin.Right); ok {
					return a.NewBinaryExpression("&", bin.Left, a.NewNumericLiteral(float64(n-1))), true
				}
			}
			return nil, false
		},
	}
}

func powerOfTwoOperand(expr ast.Expression) (uint32, bool) {
	num, ok := expr.(*ast.NumericLiteral)
	if !ok || num.Value < 0 || num.Value != float64(uint32(num.Value)) {
		return 0, false
	}
	n := uint32(num.Value)
	if n == 0 || n&(n-1) != 0 {
		return 0, false
	}
	return n, true
}

func log2(n uint32) int {
	return bits.TrailingZeros32(n)
}
