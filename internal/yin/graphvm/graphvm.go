// Package graphvm is the datom-graph backend: it interprets a program
// stored as a flat ast.DatomSet directly, addressing subexpressions by
// entity id instead of by pointer. Control alternates
// between two phases, "evaluate entity e" and "apply a value to the
// top frame", exactly as in treevm, but every frame carries entity ids
// where treevm's carries ast.Node values.
package graphvm

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

// VM is the datom-graph CESK machine. It implements cesk.VM.
type VM struct {
	ds      *ast.DatomSet
	control int64
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

// New returns a VM ready to evaluate entity root within ds.
func New(ds *ast.DatomSet, root int64) *VM {
	return NewWithEnv(ds, root, value.NewEnv())
}

// NewWithEnv is New with a non-empty initial environment: used to
// resume an imported closure body against its reconstructed captured
// bindings rather than always starting from empty.
func NewWithEnv(ds *ast.DatomSet, root int64, env value.Env) *VM {
	return &VM{
		ds:        ds,
		control:   root,
		env:       env,
		store:     cesk.NewStore(),
		streams:   cesk.NewStreamTable(),
		registry:  module.NewRegistry(),
		scheduler: scheduler.New(),
		mode:      modeEval,
	}
}

func (vm *VM) Registry() *module.Registry { return vm.registry }
func (vm *VM) Store() *cesk.Store         { return vm.store }
func (vm *VM) Halted() bool               { return vm.halted }
func (vm *VM) Blocked() bool              { return vm.blocked }
func (vm *VM) Value() value.Value         { return vm.val }
func (vm *VM) Steps() int                 { return vm.steps }

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

func (vm *VM) offset() int64 { return vm.control }

func refOf(ds *ast.DatomSet, e int64, a ast.Attr) int64 {
	v, _ := ds.Get(e, a)
	id, _ := ast.Ref(v)
	return id
}

func (vm *VM) stepEval() error {
	e := vm.control
	nt, ok := vm.ds.TypeOf(e)
	if !ok {
		return cesk.UnknownNodeType(e, "<missing yin/type>")
	}
	switch nt {
	case ast.TypeLiteral:
		v, _ := vm.ds.Get(e, ast.AttrValue)
		vm.val = toValue(v)
		vm.mode = modeApply
		return nil

	case ast.TypeVariable:
		name, _ := vm.ds.Get(e, ast.AttrName)
		v, ok := cesk.Resolve(name.(string), vm.env, vm.store, vm.registry)
		if !ok {
			v = value.Nil()
		}
		vm.val = v
		vm.mode = modeApply
		return nil

	case ast.TypeLambda:
		paramsV, _ := vm.ds.Get(e, ast.AttrParams)
		bodyID := refOf(vm.ds, e, ast.AttrBody)
		vm.val = value.ClosureOf(&value.Closure{Params: paramsV.([]string), Env: vm.env, BodyID: bodyID})
		vm.mode = modeApply
		return nil

	case ast.TypeApplication:
		opID := refOf(vm.ds, e, ast.AttrOperator)
		operandsV, _ := vm.ds.Get(e, ast.AttrOperands)
		operandIDs, _ := ast.RefVec(operandsV)
		vm.kont = operatorFrame{OperandIDs: operandIDs, Env: vm.env, Next: vm.kont}
		vm.control = opID
		return nil

	case ast.TypeIf:
		testID := refOf(vm.ds, e, ast.AttrTest)
		consID := refOf(vm.ds, e, ast.AttrConsequent)
		altID := refOf(vm.ds, e, ast.AttrAlternate)
		vm.kont = testFrame{ConsID: consID, AltID: altID, Env: vm.env, Next: vm.kont}
		vm.control = testID
		return nil

	case ast.TypeGensym:
		prefix, _ := vm.ds.Get(e, ast.AttrPrefix)
		vm.gensymCounter++
		vm.val = value.Symbol(fmt.Sprintf("%s%d", prefix.(string), vm.gensymCounter))
		vm.mode = modeApply
		return nil

	case ast.TypeStoreGet:
		key, _ := vm.ds.Get(e, ast.AttrKey)
		v, ok := vm.store.Get(key.(string))
		if !ok {
			v = value.Nil()
		}
		vm.val = v
		vm.mode = modeApply
		return nil

	case ast.TypeStorePut:
		key, _ := vm.ds.Get(e, ast.AttrKey)
		valID := refOf(vm.ds, e, ast.AttrVal)
		vm.kont = storePutFrame{Key: key.(string), Next: vm.kont}
		vm.control = valID
		return nil

	case ast.TypeStreamMake:
		bufV, _ := vm.ds.Get(e, ast.AttrBuffer)
		eff := module.StreamMakeEffect(toValue(bufV))
		return vm.applyEffect(eff.Effect, vm.kont, vm.env)

	case ast.TypeStreamPut:
		targetID := refOf(vm.ds, e, ast.AttrTarget)
		valID := refOf(vm.ds, e, ast.AttrVal)
		vm.kont = streamPutTargetFrame{ValID: valID, Env: vm.env, Next: vm.kont}
		vm.control = targetID
		return nil

	case ast.TypeStreamCursor:
		sourceID := refOf(vm.ds, e, ast.AttrSource)
		vm.kont = streamCursorSourceFrame{Next: vm.kont}
		vm.control = sourceID
		return nil

	case ast.TypeStreamNext:
		sourceID := refOf(vm.ds, e, ast.AttrSource)
		vm.kont = streamNextCursorFrame{Next: vm.kont}
		vm.control = sourceID
		return nil

	case ast.TypeStreamClose:
		sourceID := refOf(vm.ds, e, ast.AttrSource)
		vm.kont = streamCloseSourceFrame{Next: vm.kont}
		vm.control = sourceID
		return nil

	default:
		return cesk.UnknownNodeType(e, string(nt))
	}
}

func (vm *VM) stepApply() error {
	switch k := vm.kont.(type) {
	case nil:
		vm.halted = true
		return nil

	case operatorFrame:
		fn := vm.val
		if len(k.OperandIDs) == 0 {
			return vm.apply(fn, nil, k.Next)
		}
		vm.kont = operandFrame{Fn: fn, Remaining: k.OperandIDs, Env: k.Env, Next: k.Next}
		vm.control = k.OperandIDs[0]
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
			vm.control = k.ConsID
		} else {
			vm.control = k.AltID
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
		vm.control = k.ValID
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
		vm.env = fn.Closure.Env.ExtendAll(fn.Closure.Params, args)
		vm.control = fn.Closure.BodyID
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
