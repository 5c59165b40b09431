package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/pkg/codegen"
	"github.com/aledsdavies/deobf/pkg/parser"
)

// TestGenerateRoundTrips feeds source through parse -> generate -> parse and
// checks the second parse succeeds and produces the same top-level statement
// count as the first, since codegen intentionally doesn't preserve original
// formatting (only parse-back equivalence, per spec.md's text contract).
func TestGenerateRoundTrips(t *testing.T) {
	tests := []string{
		`var a = 1, b = 2;`,
		`function f(a, b) { return a + b; }`,
		`try { f(); } catch (e) { g(e); } finally { h(); }`,
		`for (var i = 0; i < 10; i++) { f(i); }`,
		`for (var k in obj) { f(k); }`,
		`while (--n) { a.push(a.shift()); }`,
		`var a = [1, 2, 3];`,
		`var a = { b: 1, "c-d": 2 };`,
		`i++;`,
		`++i;`,
		`var f = function(x) { return x * 2; };`,
		`var f = (x) => x * 2;`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			prog, err := parser.ParseProgram(src)
			require.NoError(t, err)

			out := codegen.Generate(prog)
			require.NotEmpty(t, out)

			reparsed, err := parser.ParseProgram(out)
			require.NoError(t, err, "generated source should reparse: %s", out)
			assert.Len(t, reparsed.Body, len(prog.Body))
		})
	}
}

func TestGeneratePreservesPostfixVsPrefix(t *testing.T) {
	prog, err := parser.ParseProgram("i++; ++i;")
	require.NoError(t, err)

	out := codegen.Generate(prog)
	assert.Contains(t, out, "i++")
	assert.Contains(t, out, "++i")
}

func TestGenerateEscapesStringLiterals(t *testing.T) {
	prog, err := parser.ParseProgram(`var a = "line1\nline2\"quoted\"";`)
	require.NoError(t, err)

	out := codegen.Generate(prog)
	reparsed, err := parser.ParseProgram(out)
	require.NoError(t, err)

	decl := reparsed.Body[0]
	assert.NotNil(t, decl)
}
