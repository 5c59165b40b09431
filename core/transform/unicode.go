package transform

import (
	"strings"

	"github.com/aledsdavies/deobf/core/arena"
	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
	"github.com/aledsdavies/deobf/pkg/config"
)

// zeroWidthChars are stripped outright. Grounded in
// ast_deobfuscate/unicode_mangling.rs's ZERO_WIDTH_CHARS set.
var zeroWidthChars = map[rune]bool{
	'​': true, // ZERO WIDTH SPACE
	'‌': true, // ZERO WIDTH NON-JOINER
	'‍': true, // ZERO WIDTH JOINER
	'﻿': true, // ZERO WIDTH NO-BREAK SPACE
	'⁠': true, // WORD JOINER
}

// confusables maps visually-ambiguous Cyrillic and Greek letters (the
// ranges unicode_mangling.rs treats as confusable, U+0410-U+044F and
// U+0391-U+03C9) to the Latin letter obfuscators substitute them for.
// Unmapped characters within those ranges pass through unchanged.
var confusables = map[rune]rune{
	// Cyrillic uppercase
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M',
	'Н': 'H', 'О': 'O', 'Р': 'P', 'С': 'C', 'Т': 'T', 'Х': 'X',
	// Cyrillic lowercase
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'у': 'y', 'х': 'x',
	// Greek uppercase
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Ζ': 'Z', 'Η': 'H', 'Ι': 'I',
	'Κ': 'K', 'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'Ρ': 'P', 'Τ': 'T',
	'Υ': 'Y', 'Χ': 'X',
	// Greek lowercase
	'ο': 'o',
}

// unicodeTables is the compiled, lookup-ready form of either the compiled-in
// defaults above or a pkg/config.UnicodeConfig override.
type unicodeTables struct {
	zeroWidth   map[rune]bool
	confusables map[rune]rune
}

// buildUnicodeTables applies cfg on top of the compiled-in defaults: a
// config file only needs to list the characters it wants to add or change,
// not the whole table. A nil cfg (no config file loaded) uses the defaults
// untouched.
func buildUnicodeTables(cfg *config.UnicodeConfig) unicodeTables {
	t := unicodeTables{
		zeroWidth:   make(map[rune]bool, len(zeroWidthChars)),
		confusables: make(map[rune]rune, len(confusables)),
	}
	for r, v := range zeroWidthChars {
		t.zeroWidth[r] = v
	}
	for r, v := range confusables {
		t.confusables[r] = v
	}
	if cfg == nil {
		return t
	}
	for _, s := range cfg.ZeroWidth {
		for _, r := range s {
			t.zeroWidth[r] = true
		}
	}
	for from, to := range cfg.Confusables {
		fr := []rune(from)
		tr := []rune(to)
		if len(fr) == 1 && len(tr) == 1 {
			t.confusables[fr[0]] = tr[0]
		}
	}
	return t
}

func (t unicodeTables) normalize(s string) (string, bool) {
	var b strings.Builder
	changed := false
	for _, r := range s {
		if t.zeroWidth[r] {
			changed = true
			continue
		}
		if latin, ok := t.confusables[r]; ok {
			b.WriteRune(latin)
			changed = true
			continue
		}
		b.WriteRune(r)
	}
	if !changed {
		return s, false
	}
	return b.String(), true
}

// unicodeNormalizationPass strips zero-width characters and remaps
// visually-confusable Cyrillic/Greek letters to Latin in every string
// literal. Grounded in ast_deobfuscate/unicode_mangling.rs, which applies
// this only to StringLiteral nodes (never to source identifiers, which the
// parser has already tokenized). cfg may be nil to use the compiled-in
// table as-is.
func unicodeNormalizationPass(a *arena.Arena, cfg *config.UnicodeConfig) traversal.Hooks {
	tables := buildUnicodeTables(cfg)
	return traversal.Hooks{
		ExitExpr: func(expr ast.Expression, st *state.State) (ast.Expression, bool) {
			lit, ok := expr.(*ast.StringLiteral)
			if !ok {
				return nil, false
			}
			normalized, changed := tables.normalize(lit.Value)
			if !changed {
				return nil, false
			}
			return a.NewStringLiteral(normalized), true
		},
	}
}
