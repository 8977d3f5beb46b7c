// Package integration holds tests that exercise more than one core
// package together: backend agreement, transport round-trips, and
// stream ordering properties.
package integration

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/value"
	"github.com/sonwh98/yin/pkg/yin"
	"github.com/stretchr/testify/require"
)

var backends = []yin.Backend{yin.BackendTree, yin.BackendGraph, yin.BackendRegister, yin.BackendStack}

func runOnAll(t *testing.T, program ast.Node) map[yin.Backend]value.Value {
	t.Helper()
	results := make(map[yin.Backend]value.Value, len(backends))
	for _, backend := range backends {
		engine, err := yin.New(yin.DefaultEngineConfig().WithBackend(backend))
		require.NoError(t, err)
		result, err := engine.Run(program)
		require.NoError(t, err, "backend %s", backend)
		results[backend] = result.Value
	}
	return results
}

func TestBackendsAgreeOnCanonicalPrograms(t *testing.T) {
	cases := []struct {
		name    string
		program ast.Node
		want    value.Value
	}{
		{"literal", ast.Literal{Value: 42.0}, value.Number(42)},
		{
			"addition",
			ast.Application{Operator: ast.Variable{Name: "+"}, Operands: []ast.Node{ast.Literal{Value: 10.0}, ast.Literal{Value: 20.0}}},
			value.Number(30),
		},
		{
			"two-arg-closure",
			ast.Application{
				Operator: ast.Lambda{
					Params: []string{"x", "y"},
					Body: ast.Application{
						Operator: ast.Variable{Name: "+"},
						Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Variable{Name: "y"}},
					},
				},
				Operands: []ast.Node{ast.Literal{Value: 3.0}, ast.Literal{Value: 5.0}},
			},
			value.Number(8),
		},
		{
			"one-arg-closure",
			ast.Application{
				Operator: ast.Lambda{
					Params: []string{"x"},
					Body: ast.Application{
						Operator: ast.Variable{Name: "+"},
						Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Literal{Value: 1.0}},
					},
				},
				Operands: []ast.Node{ast.Literal{Value: 5.0}},
			},
			value.Number(6),
		},
		{
			"let-shaped-false-binding",
			ast.Application{
				Operator: ast.Lambda{Params: []string{"x"}, Body: ast.Variable{Name: "x"}},
				Operands: []ast.Node{ast.Literal{Value: false}},
			},
			value.Bool(false),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := runOnAll(t, tc.program)
			for backend, got := range results {
				require.True(t, value.Equal(tc.want, got), "backend %s: want %s, got %s", backend, tc.want, got)
			}
		})
	}
}

func TestNestedClosureCaptureAgreesAcrossBackends(t *testing.T) {
	program := ast.Application{
		Operator: ast.Lambda{
			Params: []string{"x"},
			Body: ast.Application{
				Operator: ast.Lambda{
					Params: []string{"y"},
					Body: ast.Application{
						Operator: ast.Variable{Name: "+"},
						Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Variable{Name: "y"}},
					},
				},
				Operands: []ast.Node{ast.Literal{Value: 5.0}},
			},
		},
		Operands: []ast.Node{ast.Literal{Value: 3.0}},
	}
	results := runOnAll(t, program)
	for backend, got := range results {
		require.Equal(t, value.Number(8), got, "backend %s", backend)
	}
}

func TestIfBranchesAgreeAcrossBackends(t *testing.T) {
	program := ast.If{Test: ast.Literal{Value: false}, Consequent: ast.Literal{Value: 1.0}, Alternate: ast.Literal{Value: 2.0}}
	results := runOnAll(t, program)
	for backend, got := range results {
		require.Equal(t, value.Number(2), got, "backend %s", backend)
	}
}
