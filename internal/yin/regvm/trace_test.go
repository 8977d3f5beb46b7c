package regvm

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/trace"
	"github.com/stretchr/testify/require"
)

func TestTracedRunEmitsStepAndRunDatoms(t *testing.T) {
	root := ast.Application{
		Operator: ast.Variable{Name: "+"},
		Operands: []ast.Node{ast.Literal{Value: 10.0}, ast.Literal{Value: 20.0}},
	}
	prog, err := Compile(root)
	require.NoError(t, err)

	vm := New(prog)
	sink := trace.New()
	vm.SetTrace(sink)
	require.NoError(t, vm.Run())
	require.True(t, vm.Halted())

	ds := sink.DatomSet()
	stepIDs := sink.Steps()
	require.NotEmpty(t, stepIDs)
	require.Equal(t, vm.Steps(), len(stepIDs))

	sawRun := false
	for _, e := range ds.Entities() {
		if kind, ok := ds.Get(e, trace.AttrKind); ok && kind == "run" {
			sawRun = true
			reason, _ := ds.Get(e, trace.AttrEndReason)
			require.Equal(t, "halted", reason)
			steps, _ := ds.Get(e, trace.AttrSteps)
			require.Equal(t, int64(vm.Steps()), steps)
		}
	}
	require.True(t, sawRun)
}

func TestUntracedRunLeavesSinkUntouched(t *testing.T) {
	root := ast.Literal{Value: 1.0}
	prog, err := Compile(root)
	require.NoError(t, err)
	vm := New(prog)
	require.NoError(t, vm.Run())
	require.True(t, vm.Halted())
}
