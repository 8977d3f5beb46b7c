package binary

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/stackvm"
	"github.com/stretchr/testify/require"
)

func stackPrograms(t *testing.T) map[string]*stackvm.Program {
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

	progs := make(map[string]*stackvm.Program, len(cases))
	for name, root := range cases {
		prog, err := stackvm.Compile(root)
		require.NoError(t, err, name)
		progs[name] = prog
	}
	return progs
}

// TestRelativeJumpsResolveInsideCode checks the property specific to
// this backend's addressing mode: OpJump/OpJumpFalse store an offset
// relative to the instruction following the jump, so the fidelity
// check has to add that base back before bounds-checking, unlike
// regvm's absolute targets.
func TestRelativeJumpsResolveInsideCode(t *testing.T) {
	for name, prog := range stackPrograms(t) {
		t.Run(name, func(t *testing.T) {
			require.GreaterOrEqual(t, prog.EntryAddr, 0)
			require.Less(t, prog.EntryAddr, len(prog.Code))

			for i, instr := range prog.Code {
				if instr.Op != stackvm.OpJump && instr.Op != stackvm.OpJumpFalse {
					continue
				}
				target := i + 1 + instr.Operand
				require.GreaterOrEqual(t, target, 0, "instr %d resolved jump target", i)
				require.Less(t, target, len(prog.Code), "instr %d resolved jump target", i)
			}
		})
	}
}

// TestLambdaBodyAddressesAreInBounds checks OpLambda.Operand, the one
// absolute address in this backend, and that its Aux param-set index
// is valid.
func TestLambdaBodyAddressesAreInBounds(t *testing.T) {
	for name, prog := range stackPrograms(t) {
		t.Run(name, func(t *testing.T) {
			for i, instr := range prog.Code {
				if instr.Op != stackvm.OpLambda {
					continue
				}
				require.GreaterOrEqual(t, instr.Operand, 0, "instr %d lambda body", i)
				require.Less(t, instr.Operand, len(prog.Code), "instr %d lambda body", i)
				require.GreaterOrEqual(t, instr.Aux, 0, "instr %d param set index", i)
				require.Less(t, instr.Aux, len(prog.ParamSets), "instr %d param set index", i)
			}
		})
	}
}

// TestLiteralOperandsAreValid checks OpLiteral/OpLoadV.Operand index
// into Constants, the stack backend's equivalent of regvm's OpLoadK.
func TestLiteralOperandsAreValid(t *testing.T) {
	for name, prog := range stackPrograms(t) {
		t.Run(name, func(t *testing.T) {
			for i, instr := range prog.Code {
				if instr.Op != stackvm.OpLiteral && instr.Op != stackvm.OpLoadV {
					continue
				}
				require.GreaterOrEqual(t, instr.Operand, 0, "instr %d constant index", i)
				require.Less(t, instr.Operand, len(prog.Constants), "instr %d constant index", i)
			}
		})
	}
}

func TestDisassembleLineCountMatchesCode(t *testing.T) {
	for name, prog := range stackPrograms(t) {
		t.Run(name, func(t *testing.T) {
			lines := prog.Disassemble()
			require.NotEmpty(t, lines)
			nonLabels := 0
			for _, l := range lines {
				if l[len(l)-1] != ':' {
					nonLabels++
				}
			}
			require.Equal(t, len(prog.Code), nonLabels)
		})
	}
}
