package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/deobf/core/analyze"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/pkg/parser"
)

func TestCollectCallProxiesMatchesPassThrough(t *testing.T) {
	prog, err := parser.ParseProgram(`function w(p){return t(p);} var x=w(1);`)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	require.Contains(t, st.CallProxies, "w")
	assert.Equal(t, "t", st.CallProxies["w"].TargetName)
	assert.Equal(t, 1, st.CallCounts["w"])

	single := st.SingleUseProxies()
	assert.Contains(t, single, "w")
}

func TestCollectCallProxiesRejectsReorderedArgs(t *testing.T) {
	prog, err := parser.ParseProgram(`function w(p,q){return t(q,p);} w(1,2);`)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	assert.NotContains(t, st.CallProxies, "w", "reordered arguments are not a pass-through proxy")
}

func TestCollectCallProxiesRejectsExtraStatement(t *testing.T) {
	prog, err := parser.ParseProgram(`function w(p){log(p); return t(p);} w(1);`)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	assert.NotContains(t, st.CallProxies, "w", "an extra statement disqualifies the pass-through shape")
}

func TestCollectCallProxiesRejectsAsyncAndGenerator(t *testing.T) {
	src := `async function w(p){return t(p);} w(1);`
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	assert.NotContains(t, st.CallProxies, "w")

	genProg, err := parser.ParseProgram(`function* w(p){return t(p);} w(1);`)
	require.NoError(t, err)

	genSt := state.New()
	analyze.CollectCallProxies(genProg, genSt)

	assert.NotContains(t, genSt.CallProxies, "w")
}

// TestCollectCallProxiesIgnoresNonCallReference covers spec.md §4.2.3's
// single-use definition: a proxy name appearing in a non-call position
// (value context, not a call callee) must not count toward its call-count,
// matching call_proxy.rs's enter_call_expression.
func TestCollectCallProxiesIgnoresNonCallReference(t *testing.T) {
	prog, err := parser.ParseProgram(`function w(p){return t(p);} var x=w(1); var y=w;`)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	require.Contains(t, st.CallProxies, "w")
	assert.Equal(t, 1, st.CallCounts["w"], "w's appearance in value position (var y=w) is not a call callee and must not count")

	single := st.SingleUseProxies()
	assert.Contains(t, single, "w", "w is still safe to inline at its one call site despite the unrelated value reference")
}

func TestCollectCallProxiesOnlyMaterializesSingleUse(t *testing.T) {
	prog, err := parser.ParseProgram(`function w(p){return t(p);} w(1); w(2);`)
	require.NoError(t, err)

	st := state.New()
	analyze.CollectCallProxies(prog, st)

	require.Contains(t, st.CallProxies, "w")
	assert.Equal(t, 2, st.CallCounts["w"])

	single := st.SingleUseProxies()
	assert.NotContains(t, single, "w", "a proxy referenced more than once is not safe to inline")
}
