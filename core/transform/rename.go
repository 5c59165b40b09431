package transform

import (
	"fmt"

	"github.com/aledsdavies/deobf/core/ast"
	"github.com/aledsdavies/deobf/core/state"
	"github.com/aledsdavies/deobf/core/traversal"
)

// collectRenames walks the whole tree once, in document order, and assigns
// every hex-obfuscated name (`_0x5a3b`, `_1a2b3c`) a sequential replacement
// before any renaming is installed: var declarations get var_1, var_2, ...
// and function declarations/expressions get func_1, func_2, ..., counted
// separately. Collecting up front (rather than renaming during the same
// walk that applies it) keeps forward references — a hoisted function
// called before its declaration — consistent with their declaration's new
// name. Grounded in ast_deobfuscate/variable_rename.rs's should_rename and
// generate_name.
func collectRenames(prog *ast.Program) map[string]string {
	renamed := make(map[string]string)
	varCounter, funcCounter := 1, 1

	ast.Walk(prog, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.VariableDeclaration:
			for _, d := range v.Declarations {
				if _, ok := renamed[d.Name]; ok {
					continue
				}
				if shouldRename(d.Name) {
					renamed[d.Name] = fmt.Sprintf("var_%d", varCounter)
					varCounter++
				}
			}
		case *ast.FunctionDeclaration:
			if _, ok := renamed[v.Id]; !ok && shouldRename(v.Id) {
				renamed[v.Id] = fmt.Sprintf("func_%d", funcCounter)
				funcCounter++
			}
		case *ast.FunctionExpression:
			if v.Id != nil {
				if _, ok := renamed[v.Id.Name]; !ok && shouldRename(v.Id.Name) {
					renamed[v.Id.Name] = fmt.Sprintf("func_%d", funcCounter)
					funcCounter++
				}
			}
		}
		return true
	})
	return renamed
}

// shouldRename matches a leading underscore followed by either a bare hex
// run or a `0x`/`0X`-prefixed hex run, with nothing else in the name — the
// signature bundlers and minifiers leave on mangled identifiers.
func shouldRename(name string) bool {
	if len(name) < 2 || name[0] != '_' {
		return false
	}
	rest := name[1:]
	if len(rest) > 2 && (rest[:2] == "0x" || rest[:2] == "0X") {
		rest = rest[2:]
	}
	return isHex(rest)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

// renamePass installs the mapping collectRenames produced. It is a pure
// lookup: a name not in renamed passes through unchanged.
func renamePass(renamed map[string]string) traversal.Hooks {
	lookup := func(name string, st *state.State) string {
		if newName, ok := renamed[name]; ok {
			return newName
		}
		return name
	}
	return traversal.Hooks{
		EnterBindingIdentifier: func(name string, kind traversal.BindingKind, st *state.State) string {
			return lookup(name, st)
		},
		EnterIdentifierRef: func(name string, st *state.State) string {
			return lookup(name, st)
		},
	}
}
