// Package state defines the cross-tree analytic record described in
// spec.md §3: populated by the phase-A analyzers before the transform phase
// runs, read by the inliners, and reset and rebuilt every outer iteration
// (spec.md §4.4) because earlier passes may have renamed or removed the
// declarations the analyzers keyed off of.
package state

// OffsetOperation is how a decoder adjusts its argument before indexing the
// string table.
type OffsetOperation int

const (
	OffsetNone OffsetOperation = iota
	OffsetSubtract
	OffsetAdd
)

// StringArrayInfo is what the string-array detector (core/analyze) learns
// about one `var N = [...]` table: its decoded (and, if rotated,
// already-rotated) contents.
type StringArrayInfo struct {
	VarName       string
	Strings       []string
	Rotated       bool
	RotationCount int
}

// DecoderInfo is what the detector learns about one decoder function: given
// an index, it returns StringArrays[ArrayName][index±Offset].
type DecoderInfo struct {
	FunctionName    string
	ArrayName       string
	Offset          int
	OffsetOperation OffsetOperation
}

// Resolve maps a literal call argument to the string it decodes to, or
// false if the index is out of bounds.
func (d DecoderInfo) Resolve(arrays map[string]*StringArrayInfo, index int) (string, bool) {
	arr, ok := arrays[d.ArrayName]
	if !ok {
		return "", false
	}
	adjusted := index
	switch d.OffsetOperation {
	case OffsetSubtract:
		adjusted = index - d.Offset
	case OffsetAdd:
		adjusted = index + d.Offset
	}
	if adjusted < 0 || adjusted >= len(arr.Strings) {
		return "", false
	}
	return arr.Strings[adjusted], true
}

// CallProxyInfo is what the call-proxy collector learns about one
// pass-through function: `function name(p1..pk) { return target(p1..pk); }`.
type CallProxyInfo struct {
	Name       string
	TargetName string
	Params     []string
}

// State is the analytic record threaded through one outer iteration's
// analyze phase and read by the phase-A inliners. It is rebuilt from
// scratch at the start of every outer iteration (spec.md §4.4 step 1).
type State struct {
	StringArrays map[string]*StringArrayInfo
	Decoders     map[string]*DecoderInfo
	CallProxies  map[string]*CallProxyInfo
	CallCounts   map[string]int

	// Changed is set by any pass (phase A or phase B) whose ExitExpr,
	// ExitStmt or ExitStmtList hook modified the tree during this outer
	// iteration. Renames made through the identifier hooks do not set it.
	// The orchestrator (core/transform) inspects it after every iteration
	// to decide whether to repeat.
	Changed bool

	// Diagnostics collects non-fatal observations from the analyze phase
	// (e.g. near-miss decoder calls) for the driver to surface; it never
	// affects Changed or the fixed-point loop.
	Diagnostics []string
}

// New returns an empty analytic state, ready for one outer iteration's
// analyze phase to populate.
func New() *State {
	return &State{
		StringArrays: make(map[string]*StringArrayInfo),
		Decoders:     make(map[string]*DecoderInfo),
		CallProxies:  make(map[string]*CallProxyInfo),
		CallCounts:   make(map[string]int),
	}
}

// SingleUseProxies returns the subset of CallProxies whose name appears
// exactly once as a call callee in the program (CallCounts; spec.md
// §4.2.3): only these are safe to materialize for inlining. References in
// value position are not counted.
func (s *State) SingleUseProxies() map[string]*CallProxyInfo {
	out := make(map[string]*CallProxyInfo)
	for name, info := range s.CallProxies {
		if s.CallCounts[name] == 1 {
			out[name] = info
		}
	}
	return out
}
