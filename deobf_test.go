package deobf_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/transform"
	"github.com/aledsdavies/deobf/pkg/codegen"
	"github.com/aledsdavies/deobf/pkg/parser"
)

// run parses src, runs the fixed-point pipeline with the default
// configuration, and returns the regenerated source. It fails the test on a
// parse error, matching spec.md §7.1 (a parse failure is fatal, never
// partially handled).
func run(t *testing.T, src string) string {
	t.Helper()
	out, err := deobf.Deobfuscate(src)
	require.NoError(t, err)
	return out
}

// TestScenarioS1StringArrayRotationAndDecoder exercises spec.md §8's S1: a
// rotated string table plus its decoder function, both consumed and
// removed, with every console.log argument resolved to a literal.
func TestScenarioS1StringArrayRotationAndDecoder(t *testing.T) {
	src := `
var _0x5a3b = ["Hello","World","Test","Message"];
(function(a,b){var r=function(n){while(--n){a.push(a.shift());}};r(2);})(_0x5a3b,0x192);
function _0xdec(i){return _0x5a3b[i];}
console.log(_0xdec(0));
console.log(_0xdec(1));
console.log(_0xdec(2));
console.log(_0xdec(3));
`
	out := run(t, src)

	// 0x192 mod 4 == 2: two left-rotations of ["Hello","World","Test","Message"]
	// yields ["Test","Message","Hello","World"].
	assert.Contains(t, out, `"Test"`)
	assert.Contains(t, out, `"Message"`)
	assert.Contains(t, out, `"Hello"`)
	assert.Contains(t, out, `"World"`)

	assert.NotContains(t, out, "_0x5a3b", "string table declaration must be removed once dead")
	assert.NotContains(t, out, "_0xdec", "decoder declaration must be removed once dead")
	assert.NotContains(t, out, "push", "rotation IIFE must be removed once consumed")
	assert.NotContains(t, out, "shift")
}

// TestScenarioS2CallProxyInlining exercises S2: a single-use pass-through
// function is inlined at its one call site and its declaration disappears.
func TestScenarioS2CallProxyInlining(t *testing.T) {
	src := `function _w(p){return _t(p);} var x=_w(123);`
	out := run(t, src)

	assert.NotContains(t, out, "_w(", "the proxy itself must never remain as a callee")
	assert.NotContains(t, out, "function _w", "the proxy declaration must be removed")
	assert.Contains(t, out, "_t(123)", "the call site must target the proxy's original target directly")
}

// TestScenarioS3ObjectSparseConsolidation exercises S3.
func TestScenarioS3ObjectSparseConsolidation(t *testing.T) {
	src := `var obj={}; obj.a=1; obj.b="x"; obj.c=true;`
	out := run(t, src)

	assert.NotContains(t, out, "obj.a =")
	assert.NotContains(t, out, "obj.b =")
	assert.NotContains(t, out, "obj.c =")
	assert.Contains(t, out, "a: 1")
	assert.Contains(t, out, `b: "x"`)
	assert.Contains(t, out, "c: true")
}

// TestScenarioS4SequenceSplit exercises S4: a top-level comma sequence
// splits into separate statements, but a for-loop's init clause — which
// grammatically requires a single expression — is left untouched.
func TestScenarioS4SequenceSplit(t *testing.T) {
	out := run(t, `a=1, b=2, c=3;`)
	assert.Contains(t, out, "a = 1;")
	assert.Contains(t, out, "b = 2;")
	assert.Contains(t, out, "c = 3;")
	assert.NotContains(t, out, ",", "no comma should survive a split sequence statement")

	forOut := run(t, `for(a=0,b=1;;){}`)
	assert.Contains(t, forOut, "a = 0, b = 1", "a for-loop init clause must not be split")
}

// TestScenarioS5TryCatchUnwrap exercises S5's three cases: an empty handler
// unwraps, a handler doing work stays, and any finally clause stays.
func TestScenarioS5TryCatchUnwrap(t *testing.T) {
	unwrapped := run(t, `try{f();}catch(e){}`)
	assert.NotContains(t, unwrapped, "try")
	assert.NotContains(t, unwrapped, "catch")
	assert.Contains(t, unwrapped, "f();")

	kept := run(t, `try{f();}catch(e){log(e);}`)
	assert.Contains(t, kept, "try")
	assert.Contains(t, kept, "catch")

	keptFinally := run(t, `try{f();}catch(e){}finally{g();}`)
	assert.Contains(t, keptFinally, "try")
	assert.Contains(t, keptFinally, "finally")
}

// TestScenarioS6UnicodeNormalization exercises S6: zero-width characters are
// stripped and Cyrillic confusables are remapped to their Latin lookalikes.
func TestScenarioS6UnicodeNormalization(t *testing.T) {
	out := run(t, "var a = \"​А В С\";")
	assert.NotContains(t, out, "​")
	assert.Contains(t, out, "A B C")
	assert.NotContains(t, out, "А")
}

// TestBooleanLiteralRoundTrip covers spec.md §8's !0/!1/!5 boundary.
func TestBooleanLiteralRoundTrip(t *testing.T) {
	assert.Contains(t, run(t, "var a = !0;"), "true")
	assert.Contains(t, run(t, "var a = !1;"), "false")
	assert.Contains(t, run(t, "var a = !5;"), "!5", "a non-0/1 operand to ! must not be touched")
}

// TestVoidZeroRoundTrip covers the void 0 / void 5 boundary.
func TestVoidZeroRoundTrip(t *testing.T) {
	assert.Contains(t, run(t, "var a = void 0;"), "undefined")
	out := run(t, "var a = void 5;")
	assert.Contains(t, out, "void 5")
}

// TestDynamicPropertyFoldingBoundaries covers every case spec.md §8 names.
func TestDynamicPropertyFoldingBoundaries(t *testing.T) {
	assert.Contains(t, run(t, `obj["foo"];`), "obj.foo")
	assert.Contains(t, run(t, `obj["123invalid"];`), `obj["123invalid"]`, "an invalid identifier name must not fold")
	assert.Contains(t, run(t, `obj[97];`), "obj.a", "97 is the character code for 'a'")
	assert.Contains(t, run(t, `obj[variable];`), "obj[variable]", "a non-literal computed key must not fold")
}

// TestStrengthReductionBoundaries covers the power-of-two boundary spec.md
// §8 names: 1, 2, 3 (not a power of two), and 4.
func TestStrengthReductionBoundaries(t *testing.T) {
	assert.Contains(t, run(t, "var a = x*1;"), "x << 0")
	assert.Contains(t, run(t, "var a = x*2;"), "x << 1")
	assert.Contains(t, run(t, "var a = x*3;"), "x * 3", "3 is not a power of two")
	assert.Contains(t, run(t, "var a = x*4;"), "x << 2")
}

// TestStrengthReductionPrecedencePreserved covers the case a reduced
// shift/mask binds at a different precedence than the operator it replaced:
// the rendered output must parenthesize the reduced operand so re-parsing it
// reproduces the original operator grouping, not a different one.
func TestStrengthReductionPrecedencePreserved(t *testing.T) {
	out := run(t, "var a = x*2+1;")
	assert.Contains(t, out, "(x << 1) + 1", "x*2+1 reduces to (x<<1)+1; rendering it as x << 1 + 1 would reparse as x << (1+1)")

	out = run(t, "var a = x%4==0;")
	assert.Contains(t, out, "(x & 3) == 0", "x%4==0 reduces to (x&3)==0; rendering it as x & 3 == 0 would reparse as x & (3==0)")
}

// TestArrayUnpackPrecedencePreserved covers array-unpack lifting a
// low-precedence element (an assignment) out of its array literal into an
// operand position that requires higher precedence: the lifted expression
// must come out parenthesized.
func TestArrayUnpackPrecedencePreserved(t *testing.T) {
	out := run(t, "var r = [y=5,2][0] + 3;")
	assert.Contains(t, out, "(y = 5) + 3", "unpacking y=5 into a + operand unparenthesized would reparse as y = (5+3)")
}

// TestTernaryBoundaries covers spec.md §8's literal-condition ternary cases.
func TestTernaryBoundaries(t *testing.T) {
	assert.Contains(t, run(t, "var r = true?a:b;"), "a;")
	assert.Contains(t, run(t, "var r = 0?a:b;"), "b;")
	assert.Contains(t, run(t, `var r = ""?a:b;`), "b;")
	assert.Contains(t, run(t, `var r = "x"?a:b;`), "a;")
	out := run(t, "var r = cond?a:b;")
	assert.Contains(t, out, "cond ? a : b", "a non-literal condition must be left alone")
}

// TestArrayAccessUnpack covers the inline-array-literal-index boundary.
func TestArrayAccessUnpack(t *testing.T) {
	assert.Contains(t, run(t, "var a = [10,20,30][1];"), "20")
	out := run(t, "var a = [10,20,30][5];")
	assert.Contains(t, out, "[10, 20, 30][5]", "an out-of-range index must not fold")
}

// TestNoEmptyStatementsSurvive is the quantified invariant from spec.md §8:
// after the pipeline, no EmptyStatement remains anywhere in the tree.
func TestNoEmptyStatementsSurvive(t *testing.T) {
	out := run(t, "var a = 1;;; function f(){ ;; return; ; }")
	prog, err := parser.ParseProgram(out)
	require.NoError(t, err)

	hasEmpty := false
	ast.Walk(prog, func(n ast.Node) bool {
		if _, ok := n.(*ast.EmptyStatement); ok {
			hasEmpty = true
		}
		return true
	})
	assert.False(t, hasEmpty, "no EmptyStatement should survive the pipeline")
}

// TestIdempotence is the quantified invariant from spec.md §8: running the
// pipeline twice produces the same text as running it once.
func TestIdempotence(t *testing.T) {
	sources := []string{
		`var _0x5a3b = ["Hello","World"];
function _0xdec(i){return _0x5a3b[i];}
console.log(_0xdec(0));`,
		`function _w(p){return _t(p);} var x=_w(123);`,
		`var obj={}; obj.a=1; obj.b="x";`,
		`var a = !0, b = void 0, c = obj["key"], d = x*4;`,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := run(t, src)
			second := run(t, first)
			assert.Equal(t, first, second, "a second pass over already-deobfuscated output must be a no-op")
		})
	}
}

// TestOutputAlwaysParses is the quantified invariant from spec.md §8: for
// every input that parses, the pipeline's output also parses.
func TestOutputAlwaysParses(t *testing.T) {
	sources := []string{
		`var _0x1 = ["a","b","c"]; function _0xd(i){return _0x1[i-1];} _0xd(1);`,
		`try{f();}catch(e){}`,
		`a=1,b=2;`,
		`var o={}; o.x=1;`,
	}
	for _, src := range sources {
		out := run(t, src)
		_, err := parser.ParseProgram(out)
		assert.NoError(t, err, "output must reparse: %s", out)
	}
}

// TestHexRenameConsistency is the quantified invariant from spec.md §8: a
// hex-named identifier is either absent from the output, or renamed
// consistently everywhere it appears.
func TestHexRenameConsistency(t *testing.T) {
	out := run(t, `var _0xabc = 1; function _0xdef(){ return _0xabc + 1; } _0xdef();`)
	assert.NotContains(t, out, "_0xabc")
	assert.NotContains(t, out, "_0xdef")

	// The same var_1/func_1 names appear at both the declaration and the
	// reference site.
	varCount := strings.Count(out, "var_1")
	assert.GreaterOrEqual(t, varCount, 2, "the renamed variable must appear at both its declaration and its use")
}

// TestRunWithConfigHonorsMaxIterations exercises transform.RunWithConfig
// directly to confirm the outer-loop bound is enforced and reported
// (spec.md §4.4/§4.6).
func TestRunWithConfigHonorsMaxIterations(t *testing.T) {
	prog, err := parser.ParseProgram(`var _0x1 = ["a"]; function _0xd(i){return _0x1[i];} _0xd(0);`)
	require.NoError(t, err)

	iterations := transform.Run(prog, 8)
	assert.LessOrEqual(t, iterations, 8)
	assert.GreaterOrEqual(t, iterations, 1)

	out := codegen.Generate(prog)
	assert.Contains(t, out, `"a"`)
}
