package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/core/analyze"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/pkg/parser"
)

func TestNearMissDiagnosticsEmptyWithNoDecoders(t *testing.T) {
	prog, err := parser.ParseProgram("dcode(1);")
	require.NoError(t, err)

	st := state.New()
	diags := analyze.NearMissDiagnostics(prog, st)
	assert.Empty(t, diags)
}

func TestNearMissDiagnosticsFlagsCloseVariant(t *testing.T) {
	prog, err := parser.ParseProgram("_0xdec0de(3);")
	require.NoError(t, err)

	st := state.New()
	st.Decoders["_0xdec0d"] = &state.DecoderInfo{FunctionName: "_0xdec0d", ArrayName: "_0xarr"}

	diags := analyze.NearMissDiagnostics(prog, st)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "_0xdec0de")
	assert.Contains(t, diags[0], "_0xdec0d")
}

func TestNearMissDiagnosticsIgnoresExactMatches(t *testing.T) {
	prog, err := parser.ParseProgram("_0xdec0d(3);")
	require.NoError(t, err)

	st := state.New()
	st.Decoders["_0xdec0d"] = &state.DecoderInfo{FunctionName: "_0xdec0d", ArrayName: "_0xarr"}

	diags := analyze.NearMissDiagnostics(prog, st)
	assert.Empty(t, diags, "exact matches against known decoders are recognized, not near-misses")
}

func TestNearMissDiagnosticsIgnoresUnrelatedCalls(t *testing.T) {
	prog, err := parser.ParseProgram("console.log(1); foo(bar, baz);")
	require.NoError(t, err)

	st := state.New()
	st.Decoders["_0xdec0d"] = &state.DecoderInfo{FunctionName: "_0xdec0d", ArrayName: "_0xarr"}

	diags := analyze.NearMissDiagnostics(prog, st)
	assert.Empty(t, diags)
}

func TestNearMissDiagnosticsIgnoresMultiArgCalls(t *testing.T) {
	prog, err := parser.ParseProgram("_0xdec0de(3, 4);")
	require.NoError(t, err)

	st := state.New()
	st.Decoders["_0xdec0d"] = &state.DecoderInfo{FunctionName: "_0xdec0d", ArrayName: "_0xarr"}

	diags := analyze.NearMissDiagnostics(prog, st)
	assert.Empty(t, diags, "decoder calls take exactly one numeric argument")
}

func TestNearMissDiagnosticsDeduplicatesRepeatedCalls(t *testing.T) {
	prog, err := parser.ParseProgram("_0xdec0de(1); _0xdec0de(2); _0xdec0de(3);")
	require.NoError(t, err)

	st := state.New()
	st.Decoders["_0xdec0d"] = &state.DecoderInfo{FunctionName: "_0xdec0d", ArrayName: "_0xarr"}

	diags := analyze.NearMissDiagnostics(prog, st)
	assert.Len(t, diags, 1)
}
