// Package binary checks that compiled programs are internally
// consistent as raw numeric bytecode: every jump and closure target
// falls inside Code, every operand that indexes into a side table
// (ArgSets, ParamSets, Constants) is in range. This is the property a
// real loader relies on when it trusts a Program it didn't compile
// itself, not just one compiled fresh in the same process.
package binary

import (
	"strings"
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/regvm"
	"github.com/stretchr/testify/require"
)

func regPrograms(t *testing.T) map[string]*regvm.Program {
	t.Helper()
	cases := map[string]ast.Node{
		"literal": ast.Literal{Value: 1.0},
		"arithmetic": ast.Application{
			Operator: ast.Variable{Name: "+"},
			Operands: []ast.Node{ast.Literal{Value: 1.0}, ast.Literal{Value: 2.0}},
		},
		"if-branch": ast.If{
			Test:       ast.Literal{Value: true},
			Consequent: ast.Literal{Value: 1.0},
			Alternate:  ast.Literal{Value: 2.0},
		},
		"nested-closures": ast.Application{
			Operator: ast.Application{
				Operator: ast.Lambda{
					Params: []string{"x"},
					Body: ast.Lambda{
						Params: []string{"y"},
						Body: ast.Application{
							Operator: ast.Variable{Name: "+"},
							Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Variable{Name: "y"}},
						},
					},
				},
				Operands: []ast.Node{ast.Literal{Value: 3.0}},
			},
			Operands: []ast.Node{ast.Literal{Value: 5.0}},
		},
		"streams": ast.Application{
			Operator: ast.Lambda{Params: []string{"s"}, Body: ast.Application{
				Operator: ast.Lambda{Params: []string{"ignored"}, Body: ast.StreamNext{
					Source: ast.StreamCursor{Source: ast.Variable{Name: "s"}},
				}},
				Operands: []ast.Node{ast.StreamPut{Target: ast.Variable{Name: "s"}, Val: ast.Literal{Value: 1.0}}},
			}},
			Operands: []ast.Node{ast.StreamMake{}},
		},
	}

	progs := make(map[string]*regvm.Program, len(cases))
	for name, root := range cases {
		prog, err := regvm.Compile(root)
		require.NoError(t, err, name)
		progs[name] = prog
	}
	return progs
}

// TestJumpAndClosureTargetsAreInBounds checks every address a program
// can transfer control to, resolved at assembly time, actually lands
// inside the numeric Code it was resolved against.
func TestJumpAndClosureTargetsAreInBounds(t *testing.T) {
	for name, prog := range regPrograms(t) {
		t.Run(name, func(t *testing.T) {
			require.GreaterOrEqual(t, prog.EntryAddr, 0)
			require.Less(t, prog.EntryAddr, len(prog.Code))

			for i, instr := range prog.Code {
				switch instr.Op {
				case regvm.OpJump, regvm.OpJumpFalse:
					require.GreaterOrEqual(t, instr.B, 0, "instr %d jump target", i)
					require.Less(t, instr.B, len(prog.Code), "instr %d jump target", i)
				case regvm.OpClosure:
					require.GreaterOrEqual(t, instr.B, 0, "instr %d closure body", i)
					require.Less(t, instr.B, len(prog.Code), "instr %d closure body", i)
				}
			}
		})
	}
}

// TestArgAndParamSetIndicesAreValid checks every OpCall.C and
// OpClosure.D indexes an entry that actually exists in ArgSets /
// ParamSets, and that entry's register indices are non-negative.
func TestArgAndParamSetIndicesAreValid(t *testing.T) {
	for name, prog := range regPrograms(t) {
		t.Run(name, func(t *testing.T) {
			for i, instr := range prog.Code {
				switch instr.Op {
				case regvm.OpCall:
					require.GreaterOrEqual(t, instr.C, 0, "instr %d arg set index", i)
					require.Less(t, instr.C, len(prog.ArgSets), "instr %d arg set index", i)
					for _, reg := range prog.ArgSets[instr.C] {
						require.GreaterOrEqual(t, reg, 0, "instr %d arg register", i)
					}
				case regvm.OpClosure:
					require.GreaterOrEqual(t, instr.D, 0, "instr %d param set index", i)
					require.Less(t, instr.D, len(prog.ParamSets), "instr %d param set index", i)
				}
			}
		})
	}
}

// TestLoadKIndicesAreValid checks OpLoadK.B always indexes a real
// Constants entry, since a bad index there would only surface as an
// out-of-range panic deep inside Step.
func TestLoadKIndicesAreValid(t *testing.T) {
	for name, prog := range regPrograms(t) {
		t.Run(name, func(t *testing.T) {
			for i, instr := range prog.Code {
				if instr.Op != regvm.OpLoadK {
					continue
				}
				require.GreaterOrEqual(t, instr.B, 0, "instr %d constant index", i)
				require.Less(t, instr.B, len(prog.Constants), "instr %d constant index", i)
			}
		})
	}
}

// TestDisassembleRoundTripsToTheSameTargets confirms the symbolic
// disassembly and the numeric Code agree: there is one non-label line
// per Code instruction, and every branch/closure target named in the
// listing is a label the listing defines, i.e. no instruction points
// into the middle of nowhere a label never named.
func TestDisassembleRoundTripsToTheSameTargets(t *testing.T) {
	for name, prog := range regPrograms(t) {
		t.Run(name, func(t *testing.T) {
			lines := prog.Disassemble()
			require.NotEmpty(t, lines)
			labels := make(map[string]bool)
			nonLabels := 0
			for _, l := range lines {
				if l[len(l)-1] != ':' {
					nonLabels++
				} else {
					labels[l[:len(l)-1]] = true
				}
			}
			require.Equal(t, len(prog.Code), nonLabels)
			for _, l := range lines {
				if i := strings.IndexByte(l, ' '); i >= 0 && l[len(l)-1] != ':' {
					require.True(t, labels[l[i+1:]], "target %q names no label", l[i+1:])
				}
			}
		})
	}
}
