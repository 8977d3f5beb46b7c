// Package yin is the public facade over the four CESK backends: an
// Engine builds and runs a program on the backend its EngineConfig
// selects. The core itself defines no CLI, so this is the embedding API
// cmd/yin-run builds on. The transport layer and the module registry
// are not reached through this package.
package yin

import (
	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/graphvm"
	"github.com/sonwh98/yin/internal/yin/regvm"
	"github.com/sonwh98/yin/internal/yin/stackvm"
	"github.com/sonwh98/yin/internal/yin/trace"
	"github.com/sonwh98/yin/internal/yin/treevm"
	"github.com/sonwh98/yin/internal/yin/value"
)

// Engine runs U-AST programs on a configured backend.
type Engine struct {
	config *EngineConfig
	trace  *trace.Sink
}

// New returns an Engine. A nil config uses DefaultEngineConfig.
func New(config *EngineConfig) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, newError(ErrInvalidConfig, err, "invalid engine config")
	}
	e := &Engine{config: config}
	if config.Trace != nil && config.Trace.Enabled {
		e.trace = &trace.Sink{Cadence: config.Trace.Cadence, IncludeValues: config.Trace.IncludeValues}
	}
	return e, nil
}

// Result is the outcome of running a program to completion.
type Result struct {
	Value value.Value
	Steps int
}

// Trace returns the trace sink attached to this Engine's runs, or nil
// if tracing is disabled. Only the register backend records into it;
// the others can adopt the same schema later.
func (e *Engine) Trace() *trace.Sink { return e.trace }

// Run compiles (where the backend requires it) and runs root until the
// VM halts or blocks, wrapping any error the VM returns as
// ErrExecution. A program that parks with nothing left to wake it is
// not an error, matching every backend's Run returning nil on a clean
// park: Run then returns the Value the VM held when it blocked, and
// Result does not record whether the VM halted or blocked.
func (e *Engine) Run(root ast.Node) (*Result, error) {
	vm, err := e.build(root)
	if err != nil {
		return nil, err
	}
	if err := vm.Run(); err != nil {
		return nil, newError(ErrExecution, err, "execution failed")
	}
	return &Result{Value: vm.Value(), Steps: vm.Steps()}, nil
}

// Backend constructs, but does not run, the CESK machine for root on
// the Engine's configured backend. Exposed for callers that want to
// drive Step themselves (e.g. to interleave multiple VMs).
func (e *Engine) Backend(root ast.Node) (cesk.VM, error) {
	return e.build(root)
}

func (e *Engine) build(root ast.Node) (cesk.VM, error) {
	switch e.config.Backend {
	case BackendTree:
		return treevm.New(root), nil
	case BackendGraph:
		rootID, datoms := ast.Project(root)
		return graphvm.New(ast.NewDatomSet(datoms), rootID), nil
	case BackendRegister:
		prog, err := regvm.Compile(root)
		if err != nil {
			return nil, newError(ErrCompile, err, "register compilation failed")
		}
		vm := regvm.New(prog)
		if e.trace != nil {
			vm.SetTrace(e.trace)
		}
		return vm, nil
	case BackendStack:
		prog, err := stackvm.Compile(root)
		if err != nil {
			return nil, newError(ErrCompile, err, "stack compilation failed")
		}
		return stackvm.New(prog), nil
	default:
		return nil, newError(ErrUnsupportedBackend, nil, "unknown backend %q", e.config.Backend)
	}
}
