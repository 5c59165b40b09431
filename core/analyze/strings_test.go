package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/core/analyze"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/pkg/parser"
)

func TestDetectStringArraysPlainDecoder(t *testing.T) {
	prog, err := parser.ParseProgram(`var _0xa = ["one","two"]; function dec(i){ return _0xa[i]; }`)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	require.Contains(t, st.StringArrays, "_0xa")
	assert.Equal(t, []string{"one", "two"}, st.StringArrays["_0xa"].Strings)
	require.Contains(t, st.Decoders, "dec")
	assert.Equal(t, state.OffsetNone, st.Decoders["dec"].OffsetOperation)

	val, ok := st.Decoders["dec"].Resolve(st.StringArrays, 1)
	require.True(t, ok)
	assert.Equal(t, "two", val)
}

func TestDetectStringArraysInlineOffsetDecoder(t *testing.T) {
	prog, err := parser.ParseProgram(`var _0xa = ["one","two","three"]; function dec(i){ return _0xa[i - 1]; }`)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	require.Contains(t, st.Decoders, "dec")
	assert.Equal(t, state.OffsetSubtract, st.Decoders["dec"].OffsetOperation)
	assert.Equal(t, 1, st.Decoders["dec"].Offset)

	val, ok := st.Decoders["dec"].Resolve(st.StringArrays, 1)
	require.True(t, ok)
	assert.Equal(t, "one", val)
}

// TestDetectStringArraysPrecedingAssignmentOffsetDecoder covers spec.md
// §4.2.1's third decoder shape: the index adjustment lives in a statement
// preceding the return rather than inline inside it.
func TestDetectStringArraysPrecedingAssignmentOffsetDecoder(t *testing.T) {
	prog, err := parser.ParseProgram(`var _0xa = ["one","two","three"]; function dec(i){ i = i - 1; return _0xa[i]; }`)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	require.Contains(t, st.Decoders, "dec")
	assert.Equal(t, state.OffsetSubtract, st.Decoders["dec"].OffsetOperation)
	assert.Equal(t, 1, st.Decoders["dec"].Offset)

	val, ok := st.Decoders["dec"].Resolve(st.StringArrays, 1)
	require.True(t, ok)
	assert.Equal(t, "one", val)
}

func TestDetectStringArraysRejectsNumericElements(t *testing.T) {
	prog, err := parser.ParseProgram(`var _0xa = ["one", 2];`)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	assert.NotContains(t, st.StringArrays, "_0xa", "a table with a non-string element is not a string table")
}

func TestDetectStringArraysRotationIIFE(t *testing.T) {
	src := `var _0xa = ["a","b","c","d"];
(function(arr,n){var r=function(n){while(--n){arr.push(arr.shift());}};r(n);})(_0xa,0x192);`
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	require.Contains(t, st.StringArrays, "_0xa")
	info := st.StringArrays["_0xa"]
	assert.True(t, info.Rotated)
	// 0x192 == 402; 402 mod 4 == 2.
	assert.Equal(t, 2, info.RotationCount)
	assert.Equal(t, []string{"c", "d", "a", "b"}, info.Strings)
}

func TestDetectStringArraysIgnoresUnrelatedWhileLoop(t *testing.T) {
	src := `var _0xa = ["a","b"];
while(--n){ log(n); }`
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)

	st := state.New()
	analyze.DetectStringArrays(prog, st)

	require.Contains(t, st.StringArrays, "_0xa")
	assert.False(t, st.StringArrays["_0xa"].Rotated, "an unrelated while(--n) loop must not be mistaken for the rotation IIFE")
}
