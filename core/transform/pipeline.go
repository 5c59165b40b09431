package transform

import (
	"log/slog"

	"github.com/aledsdavies/deobf/core/analyze"
	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/invariant"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
	"github.com/aledsdavies/deobf/pkg/config"
)

// DefaultMaxIterations is I_max, the outer-iteration bound spec.md §4.4
// recommends: generous enough for every pass to reach its fixed point on
// realistic obfuscated input, small enough to fail fast on a pathological
// or cyclic rewrite.
const DefaultMaxIterations = 8

// Run executes the fixed-point loop spec.md §4.4 describes: rebuild the
// analytic state, run the phase-A inliners, then the local rewrite passes
// in their fixed order, repeating until a full pass over all of them makes
// no further change or maxIterations is reached. It reports how many outer
// iterations actually ran.
//
// The pass order follows spec.md §4.4 step 3 exactly: string-array/decoder
// inlining and call-proxy inlining first, then unicode-normalize,
// boolean-literal, void-replacer, array-unpack, dynamic-property,
// strength-reduction, ternary, try-catch, sequence-split,
// object-consolidation, empty-cleanup, renamer, in that order. The order is
// fixed across iterations; spec.md §4.6's termination argument depends on
// each pass's rewrite count only ever decreasing run over run, and a pass
// reordering can invalidate that monotonicity.
func Run(prog *ast.Program, maxIterations int) int {
	iterations, _ := RunWithConfig(prog, &config.Config{MaxIterations: maxIterations})
	return iterations
}

// RunWithConfig is Run with the unicode table and iteration bound taken from
// cfg (see pkg/config) instead of hardcoded defaults. A nil cfg behaves like
// config.Default(). It also returns every diagnostic (SPEC_FULL.md §4's
// near-miss report) surfaced across all outer iterations, so a caller can
// act on them instead of only seeing them at slog.Debug level.
func RunWithConfig(prog *ast.Program, cfg *config.Config) (int, []string) {
	if cfg == nil {
		cfg = config.Default()
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	invariant.Precondition(maxIterations > 0, "maxIterations must be positive, got %d", maxIterations)

	a := arena.New()
	defer a.Close()

	iterations := 0
	var diagnostics []string
	for iterations < maxIterations {
		st := state.New()
		analyze.DetectStringArrays(prog, st)
		analyze.CollectCallProxies(prog, st)
		st.Diagnostics = analyze.NearMissDiagnostics(prog, st)
		diagnostics = append(diagnostics, st.Diagnostics...)
		for _, d := range st.Diagnostics {
			slog.Debug("deobfuscation diagnostic", "message", d)
		}

		traversal.WalkProgram(prog, stringArrayInliner(a), st)
		traversal.WalkProgram(prog, deadDeclarationCleanup(a, prog), st)
		traversal.WalkProgram(prog, callProxyInliner(a), st)
		traversal.WalkProgram(prog, unicodeNormalizationPass(a, &cfg.Unicode), st)
		traversal.WalkProgram(prog, booleanLiteralPass(a), st)
		traversal.WalkProgram(prog, voidZeroPass(a), st)
		traversal.WalkProgram(prog, arrayUnpackPass(a), st)
		traversal.WalkProgram(prog, dynamicPropertyPass(a), st)
		traversal.WalkProgram(prog, strengthReductionPass(a), st)
		traversal.WalkProgram(prog, ternaryPass(a), st)
		traversal.WalkProgram(prog, tryCatchUnwrapPass(a), st)
		traversal.WalkProgram(prog, sequenceSplitPass(a), st)
		traversal.WalkProgram(prog, objectSparsingPass(a), st)
		traversal.WalkProgram(prog, emptyStatementCleanupPass(a), st)
		traversal.WalkProgram(prog, renamePass(collectRenames(prog)), st)

		iterations++
		slog.Debug("deobfuscation outer iteration complete",
			"iteration", iterations,
			"changed", st.Changed,
			"string_arrays", len(st.StringArrays),
			"decoders", len(st.Decoders),
			"call_proxies", len(st.CallProxies),
		)
		if !st.Changed {
			break
		}
	}

	invariant.Invariant(iterations <= maxIterations,
		"outer iteration count exceeded bound: %d > %d", iterations, maxIterations)
	slog.Info("deobfuscation pipeline finished", "iterations", iterations, "nodes_allocated", a.Allocations())
	return iterations, diagnostics
}
