package yin

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/value"
	"github.com/stretchr/testify/require"
)

func arithmeticProgram() ast.Node {
	return ast.Application{
		Operator: ast.Variable{Name: "+"},
		Operands: []ast.Node{ast.Literal{Value: 10.0}, ast.Literal{Value: 20.0}},
	}
}

func TestRunAcrossBackendsAgree(t *testing.T) {
	for _, backend := range []Backend{BackendTree, BackendGraph, BackendRegister, BackendStack} {
		t.Run(string(backend), func(t *testing.T) {
			engine, err := New(DefaultEngineConfig().WithBackend(backend))
			require.NoError(t, err)
			result, err := engine.Run(arithmeticProgram())
			require.NoError(t, err)
			require.Equal(t, value.Number(30), result.Value)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(DefaultEngineConfig().WithBackend("nonsense"))
	require.Error(t, err)
	var yerr *Error
	require.ErrorAs(t, err, &yerr)
	require.Equal(t, ErrInvalidConfig, yerr.Code)
}

func TestTraceEnabledOnRegisterBackendRecordsSteps(t *testing.T) {
	config := DefaultEngineConfig().WithBackend(BackendRegister).WithTrace(DefaultTraceConfig().WithEnabled(true))
	engine, err := New(config)
	require.NoError(t, err)
	result, err := engine.Run(arithmeticProgram())
	require.NoError(t, err)
	require.Equal(t, value.Number(30), result.Value)
	require.NotNil(t, engine.Trace())
	require.NotEmpty(t, engine.Trace().Steps())
}

func TestErrorIsComparesByCode(t *testing.T) {
	a := newError(ErrCompile, nil, "x")
	b := newError(ErrCompile, nil, "y")
	c := newError(ErrExecution, nil, "z")
	require.True(t, a.Is(b))
	require.False(t, a.Is(c))
}
