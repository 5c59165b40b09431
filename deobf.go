// Package deobf is the pipeline's core entry point (spec.md §6): parse,
// analyze, transform to a fixed point, and emit text, all in one call. It
// exists so the pipeline is usable as a library independent of cmd/deobf's
// CLI wrapper.
package deobf

import (
	"fmt"

	"github.com/aledsdavies/deobf/core/transform"
	"github.com/aledsdavies/deobf/pkg/cache"
	"github.com/aledsdavies/deobf/pkg/codegen"
	"github.com/aledsdavies/deobf/pkg/config"
	"github.com/aledsdavies/deobf/pkg/parser"
)

// Result is one pipeline run's outcome.
type Result struct {
	Output     string
	Iterations int
	// Diagnostics are non-fatal observations surfaced by the analyze phase
	// (see core/analyze.NearMissDiagnostics) — informational only, never a
	// reason to fail the run.
	Diagnostics []string
	Cached      bool
}

// Deobfuscate parses source, runs the fixed-point rewrite loop with the
// default configuration, and renders the result back to text. Per spec.md
// §7.1, a parse failure is returned verbatim with no partial output.
func Deobfuscate(source string) (string, error) {
	result, err := Run(source, config.Default(), nil)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// Run is Deobfuscate's configurable form: cfg shapes the unicode table and
// iteration bound (pkg/config), and an optional cache (pkg/cache) lets a
// driver skip the whole pipeline for source it has already seen under the
// same configuration.
func Run(source string, cfg *config.Config, c *cache.Cache) (Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var cacheKey string
	if c != nil {
		key, err := cache.Key(source, cfg.MaxIterations, unicodeSalt(cfg))
		if err == nil {
			cacheKey = key
			if entry, ok := c.Get(key); ok {
				return Result{Output: entry.Output, Iterations: entry.Iterations, Cached: true}, nil
			}
		}
	}

	prog, err := parser.ParseProgram(source)
	if err != nil {
		return Result{}, fmt.Errorf("deobf: %w", err)
	}

	iterations, diagnostics := transform.RunWithConfig(prog, cfg)
	output := codegen.Generate(prog)

	if c != nil && cacheKey != "" {
		_ = c.Put(cacheKey, cache.Entry{Output: output, Iterations: iterations})
	}

	return Result{Output: output, Iterations: iterations, Diagnostics: diagnostics}, nil
}

// unicodeSalt folds a config's unicode overrides into the cache key so two
// different tables over the same source never collide on one cache entry.
func unicodeSalt(cfg *config.Config) string {
	salt := fmt.Sprintf("zw:%v", cfg.Unicode.ZeroWidth)
	for from, to := range cfg.Unicode.Confusables {
		salt += fmt.Sprintf(",%s=%s", from, to)
	}
	return salt
}
