// Package treevm is the tree-walking backend: it interprets an
// ast.Node tree directly, with no intermediate compilation step. The
// continuation is a linked chain of frame values, making Step's
// per-call cost independent of expression depth.
package treevm

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/scheduler"
	"github.com/sonwh98/yin/internal/yin/value"
)

type mode int

const (
	modeEval mode = iota
	modeApply
)

// VM is the tree-walking CESK machine. It implements cesk.VM.
type VM struct {
	control ast.Node
	val     value.Value
	env     value.Env
	kont    frame
	mode    mode

	store     *cesk.Store
	streams   *cesk.StreamTable
	registry  *module.Registry
	scheduler *scheduler.Scheduler

	gensymCounter int
	steps         int
	halted        bool
	blocked       bool
	err           error
}

// New returns a VM ready to evaluate root from the empty environment.
func New(root ast.Node) *VM {
	return &VM{
		control:   root,
		env:       value.NewEnv(),
		store:     cesk.NewStore(),
		streams:   cesk.NewStreamTable(),
		registry:  module.NewRegistry(),
		scheduler: scheduler.New(),
		mode:      modeEval,
	}
}

// Registry exposes the VM's primitive/module registry so callers can
// register additional modules before running.
func (vm *VM) Registry() *module.Registry { return vm.registry }

// Store exposes the VM's global store, e.g. for test assertions.
func (vm *VM) Store() *cesk.Store { return vm.store }

func (vm *VM) Halted() bool       { return vm.halted }
func (vm *VM) Blocked() bool      { return vm.blocked }
func (vm *VM) Value() value.Value { return vm.val }
func (vm *VM) Steps() int         { return vm.steps }

// Step performs one CESK transition. While blocked, a call to Step
// only attempts to wake a parked continuation; it does not count
// against Steps until control actually resumes.
func (vm *VM) Step() error {
	if vm.halted {
		return vm.err
	}
	if vm.blocked {
		vm.scheduler.WakeCheck(vm.streams.All())
		if entry, ok := vm.scheduler.PopRun(); ok {
			vm.resume(entry)
		}
		return nil
	}
	vm.steps++
	var err error
	if vm.mode == modeEval {
		err = vm.stepEval()
	} else {
		err = vm.stepApply()
	}
	if err != nil {
		vm.halted = true
		vm.err = err
	}
	return err
}

// Run steps until halted or genuinely blocked (no wait-set entry
// became runnable on the last wake check).
func (vm *VM) Run() error {
	for !vm.halted {
		wasBlocked := vm.blocked
		if err := vm.Step(); err != nil {
			return err
		}
		if wasBlocked && vm.blocked {
			return nil
		}
	}
	return vm.err
}

func (vm *VM) resume(entry scheduler.RunEntry) {
	vm.kont = entry.Continuation.(frame)
	vm.env = entry.Env.(value.Env)
	vm.val = entry.Value
	vm.mode = modeApply
	vm.blocked = false
}

func (vm *VM) offset() int64 { return int64(vm.steps) }

func (vm *VM) stepEval() error {
	switch n := vm.control.(type) {
	case ast.Literal:
		vm.val = toValue(n.Value)
		vm.mode = modeApply
		return nil

	case ast.Variable:
		v, ok := cesk.Resolve(n.Name, vm.env, vm.store, vm.registry)
		if !ok {
			v = value.Nil()
		}
		vm.val = v
		vm.mode = modeApply
		return nil

	case ast.Lambda:
		vm.val = value.ClosureOf(&value.Closure{Params: n.Params, Env: vm.env, Body: n.Body})
		vm.mode = modeApply
		return nil

	case ast.Application:
		vm.kont = operatorFrame{Operands: n.Operands, Env: vm.env, Next: vm.kont}
		vm.control = n.Operator
		return nil

	case ast.If:
		vm.kont = testFrame{Consequent: n.Consequent, Alternate: n.Alternate, Env: vm.env, Next: vm.kont}
		vm.control = n.Test
		return nil

	case ast.Gensym:
		vm.gensymCounter++
		vm.val = value.Symbol(fmt.Sprintf("%s%d", n.Prefix, vm.gensymCounter))
		vm.mode = modeApply
		return nil

	case ast.StoreGet:
		v, ok := vm.store.Get(n.Key)
		if !ok {
			v = value.Nil()
		}
		vm.val = v
		vm.mode = modeApply
		return nil

	case ast.StorePut:
		vm.kont = storePutFrame{Key: n.Key, Next: vm.kont}
		vm.control = n.Val
		return nil

	case ast.StreamMake:
		eff := module.StreamMakeEffect(toValue(n.Buffer))
		return vm.applyEffect(eff.Effect, vm.kont, vm.env)

	case ast.StreamPut:
		vm.kont = streamPutTargetFrame{ValNode: n.Val, Env: vm.env, Next: vm.kont}
		vm.control = n.Target
		return nil

	case ast.StreamCursor:
		vm.kont = streamCursorSourceFrame{Next: vm.kont}
		vm.control = n.Source
		return nil

	case ast.StreamNext:
		vm.kont = streamNextCursorFrame{Next: vm.kont}
		vm.control = n.Source
		return nil

	case ast.StreamClose:
		vm.kont = streamCloseSourceFrame{Next: vm.kont}
		vm.control = n.Source
		return nil

	default:
		return cesk.UnknownNodeType(0, fmt.Sprintf("%T", n))
	}
}

func (vm *VM) stepApply() error {
	switch k := vm.kont.(type) {
	case nil:
		vm.halted = true
		return nil

	case operatorFrame:
		fn := vm.val
		if len(k.Operands) == 0 {
			return vm.apply(fn, nil, k.Next)
		}
		vm.kont = operandFrame{Fn: fn, Remaining: k.Operands, Env: k.Env, Next: k.Next}
		vm.control = k.Operands[0]
		vm.env = k.Env
		vm.mode = modeEval
		return nil

	case operandFrame:
		collected := append(append([]value.Value{}, k.Collected...), vm.val)
		remaining := k.Remaining[1:]
		if len(remaining) == 0 {
			return vm.apply(k.Fn, collected, k.Next)
		}
		vm.kont = operandFrame{Fn: k.Fn, Collected: collected, Remaining: remaining, Env: k.Env, Next: k.Next}
		vm.control = remaining[0]
		vm.env = k.Env
		vm.mode = modeEval
		return nil

	case testFrame:
		if vm.val.Truthy() {
			vm.control = k.Consequent
		} else {
			vm.control = k.Alternate
		}
		vm.env = k.Env
		vm.kont = k.Next
		vm.mode = modeEval
		return nil

	case storePutFrame:
		vm.store.Put(k.Key, vm.val)
		vm.val = value.Nil()
		vm.kont = k.Next
		return nil

	case streamPutTargetFrame:
		vm.kont = streamPutValFrame{Target: vm.val, Next: k.Next}
		vm.control = k.ValNode
		vm.env = k.Env
		vm.mode = modeEval
		return nil

	case streamPutValFrame:
		eff := module.StreamPutEffect(k.Target, vm.val)
		return vm.applyEffect(eff.Effect, k.Next, vm.env)

	case streamCursorSourceFrame:
		eff := module.StreamCursorEffect(vm.val)
		return vm.applyEffect(eff.Effect, k.Next, vm.env)

	case streamNextCursorFrame:
		eff := module.StreamNextEffect(vm.val)
		return vm.applyEffect(eff.Effect, k.Next, vm.env)

	case streamCloseSourceFrame:
		eff := module.StreamCloseEffect(vm.val)
		return vm.applyEffect(eff.Effect, k.Next, vm.env)

	default:
		return cesk.Fatal("unknown-frame", vm.offset(), fmt.Sprintf("unknown continuation frame %T", k))
	}
}

func (vm *VM) apply(fn value.Value, args []value.Value, next frame) error {
	switch fn.Kind {
	case value.KindClosure:
		body, ok := fn.Closure.Body.(ast.Node)
		if !ok {
			return cesk.Fatal("bad-closure", vm.offset(), "closure has no tree-walking body")
		}
		vm.env = fn.Closure.Env.ExtendAll(fn.Closure.Params, args)
		vm.control = body
		vm.kont = next
		vm.mode = modeEval
		return nil

	case value.KindNative:
		result, err := fn.Native(args)
		if err != nil {
			return err
		}
		if result.Kind == value.KindEffect {
			return vm.applyEffect(result.Effect, next, vm.env)
		}
		vm.val = result
		vm.kont = next
		vm.mode = modeApply
		return nil

	default:
		return cesk.ApplyNonFunction(vm.offset(), fn)
	}
}

func (vm *VM) applyEffect(eff *value.Effect, next frame, env value.Env) error {
	result, park, err := cesk.ApplyEffect(vm.offset(), eff, vm.store, vm.streams)
	if err != nil {
		return err
	}
	if park != nil {
		switch park.Reason {
		case cesk.ParkNext:
			vm.scheduler.ParkNext(next, env, park.StreamID, park.Cursor)
		case cesk.ParkPut:
			vm.scheduler.ParkPut(next, env, park.StreamID, park.Pending)
		}
		vm.blocked = true
		return nil
	}
	vm.val = result
	vm.kont = next
	vm.env = env
	vm.mode = modeApply
	return nil
}

// toValue lifts a literal's raw Go payload (produced by a front-end
// parser, out of scope here) into a Value.
func toValue(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Nil()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case int:
		return value.Number(float64(v))
	case string:
		return value.String(v)
	case value.Value:
		return v
	default:
		return value.Nil()
	}
}
