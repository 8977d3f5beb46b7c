// Package trace is the observational surface for a future JIT: a VM
// may emit a datom describing each step it takes, plus a run-level
// datom recording how execution started and ended. Trace output is
// itself a datom set, queryable by the same ast.DatomSet mechanisms as
// any other datoms; the register backend wires this in first, the
// others can adopt the same schema later.
package trace

import (
	"sort"

	"github.com/sonwh98/yin/internal/yin/ast"
)

// Attr namespaces the trace schema. Attr's underlying type is a plain
// string (ast.Attr), so these live outside ast's fixed node schema
// without needing changes there.
const (
	AttrKind        ast.Attr = "trace/kind"    // "step" | "run"
	AttrVM          ast.Attr = "trace/vm"      // backend name: tree, graph, register, stack
	AttrOp          ast.Attr = "trace/op"      // opcode or node-kind name
	AttrIPBefore    ast.Attr = "trace/ip-before"
	AttrIPAfter     ast.Attr = "trace/ip-after"
	AttrReads       ast.Attr = "trace/reads"       // []RegisterAccess, as interface{} values
	AttrWrites      ast.Attr = "trace/writes"      // []RegisterAccess
	AttrBranchTaken ast.Attr = "trace/branch-taken" // bool, present only on branch ops
	AttrCallTarget  ast.Attr = "trace/call-target"  // string, present only on call ops
	AttrReturnKind  ast.Attr = "trace/return-kind"   // value.Kind.String(), present only on return ops
	AttrSnapshot    ast.Attr = "trace/snapshot"      // []RegisterAccess, periodic full register file
	AttrProgramID   ast.Attr = "trace/program-id"
	AttrStartIP     ast.Attr = "trace/start-ip"
	AttrEndReason   ast.Attr = "trace/end-reason" // "halted" | "blocked" | "error"
	AttrSteps       ast.Attr = "trace/steps"
)

// RegisterAccess names one register/slot read or written by a step,
// and the type tag of the value observed there. DefaultCadence governs
// how often a full register-file Snapshot is taken; raw values are
// never recorded unless a Sink opts in.
type RegisterAccess struct {
	Index int
	Type  string // value.Kind.String(); raw value omitted unless IncludeValues
	Raw   interface{} `json:"raw,omitempty"`
}

// DefaultCadence is how many steps elapse between register-file
// snapshots when a Sink does not override it.
const DefaultCadence = 64

// StepEvent describes a single VM step, the payload a Sink turns into
// a "step" trace datom.
type StepEvent struct {
	VM          string
	Op          string
	IPBefore    int
	IPAfter     int
	Reads       []RegisterAccess
	Writes      []RegisterAccess
	HasBranch   bool
	BranchTaken bool
	CallTarget  string
	HasReturn   bool
	ReturnKind  string
	Snapshot    []RegisterAccess // nil unless this step lands on the cadence boundary
}

// RunEvent describes how a VM's Run concluded, the payload a Sink
// turns into a "run" trace datom.
type RunEvent struct {
	VM         string
	ProgramID  string
	StartIP    int
	EndReason  string
	Steps      int
}

// Sink accumulates trace events as datoms and reports when the next
// step lands on a snapshot boundary. A nil *Sink is a valid no-op
// receiver (see Step/Run helpers below), so instrumenting a VM costs
// nothing when tracing is disabled.
type Sink struct {
	Cadence       int
	IncludeValues bool

	datoms   []ast.Datom
	nextID   int64
	stepSeen int
}

// New returns a Sink with the default snapshot cadence.
func New() *Sink {
	return &Sink{Cadence: DefaultCadence, nextID: -1}
}

func (s *Sink) alloc() int64 {
	id := s.nextID
	s.nextID--
	return id
}

// DueForSnapshot reports whether the step about to run should capture
// a full register-file snapshot, and advances the internal counter.
// Callers that maintain their own register file call this before
// building the StepEvent so they know whether to populate Snapshot.
func (s *Sink) DueForSnapshot() bool {
	if s == nil {
		return false
	}
	cadence := s.Cadence
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	due := s.stepSeen%cadence == 0
	s.stepSeen++
	return due
}

func accessValues(accesses []RegisterAccess, includeRaw bool) []interface{} {
	out := make([]interface{}, len(accesses))
	for i, a := range accesses {
		if !includeRaw {
			a.Raw = nil
		}
		out[i] = a
	}
	return out
}

// Step records one step as a datom. No-op on a nil Sink.
func (s *Sink) Step(ev StepEvent) {
	if s == nil {
		return
	}
	e := s.alloc()
	datoms := []ast.Datom{
		{E: e, A: AttrKind, V: "step"},
		{E: e, A: AttrVM, V: ev.VM},
		{E: e, A: AttrOp, V: ev.Op},
		{E: e, A: AttrIPBefore, V: int64(ev.IPBefore)},
		{E: e, A: AttrIPAfter, V: int64(ev.IPAfter)},
	}
	if len(ev.Reads) > 0 {
		datoms = append(datoms, ast.Datom{E: e, A: AttrReads, V: accessValues(ev.Reads, s.IncludeValues)})
	}
	if len(ev.Writes) > 0 {
		datoms = append(datoms, ast.Datom{E: e, A: AttrWrites, V: accessValues(ev.Writes, s.IncludeValues)})
	}
	if ev.HasBranch {
		datoms = append(datoms, ast.Datom{E: e, A: AttrBranchTaken, V: ev.BranchTaken})
	}
	if ev.CallTarget != "" {
		datoms = append(datoms, ast.Datom{E: e, A: AttrCallTarget, V: ev.CallTarget})
	}
	if ev.HasReturn {
		datoms = append(datoms, ast.Datom{E: e, A: AttrReturnKind, V: ev.ReturnKind})
	}
	if ev.Snapshot != nil {
		datoms = append(datoms, ast.Datom{E: e, A: AttrSnapshot, V: accessValues(ev.Snapshot, s.IncludeValues)})
	}
	s.datoms = append(s.datoms, datoms...)
}

// Run records how execution concluded as a datom. No-op on a nil Sink.
func (s *Sink) Run(ev RunEvent) {
	if s == nil {
		return
	}
	e := s.alloc()
	s.datoms = append(s.datoms,
		ast.Datom{E: e, A: AttrKind, V: "run"},
		ast.Datom{E: e, A: AttrVM, V: ev.VM},
		ast.Datom{E: e, A: AttrProgramID, V: ev.ProgramID},
		ast.Datom{E: e, A: AttrStartIP, V: int64(ev.StartIP)},
		ast.Datom{E: e, A: AttrEndReason, V: ev.EndReason},
		ast.Datom{E: e, A: AttrSteps, V: int64(ev.Steps)},
	)
}

// DatomSet indexes every datom recorded so far, queryable the same way
// as any other ast.DatomSet.
func (s *Sink) DatomSet() *ast.DatomSet {
	if s == nil {
		return ast.NewDatomSet(nil)
	}
	return ast.NewDatomSet(s.datoms)
}

// Steps returns every recorded step entity id, in emission order.
func (s *Sink) Steps() []int64 {
	if s == nil {
		return nil
	}
	ds := s.DatomSet()
	var ids []int64
	for _, e := range ds.Entities() {
		if kind, ok := ds.Get(e, AttrKind); ok && kind == "step" {
			ids = append(ids, e)
		}
	}
	// alloc hands out decreasing ids, so emission order is descending.
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}
