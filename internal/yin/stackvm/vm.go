package stackvm

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/scheduler"
	"github.com/sonwh98/yin/internal/yin/value"
)

// frame is one call-frame stack entry: the parameter slots bound at
// call time, the environment closed over at the call site (used only
// by OpLoadV's fallback to Resolve), and the instruction pointer local
// to this activation.
type frame struct {
	locals []value.Value
	env    value.Env
	ip     int
	caller *frame
}

// parkedPush marks that a frame's operand stack is waiting for a
// single value to be pushed once the effect that suspended it
// resolves; stackvm needs no destination slot the way regvm does,
// since the operand stack already records where the value belongs.
type parkedPush struct{}

// VM executes an assembled Program over one shared operand stack plus
// a call-frame stack. It implements cesk.VM.
type VM struct {
	prog    *Program
	operand []value.Value
	current *frame

	store     *cesk.Store
	streams   *cesk.StreamTable
	registry  *module.Registry
	scheduler *scheduler.Scheduler

	gensymCounter int
	steps         int
	halted        bool
	blocked       bool
	result        value.Value
	err           error
}

// New returns a VM ready to run prog from its entry point.
func New(prog *Program) *VM {
	return &VM{
		prog:      prog,
		current:   &frame{env: value.NewEnv(), ip: prog.EntryAddr},
		store:     cesk.NewStore(),
		streams:   cesk.NewStreamTable(),
		registry:  module.NewRegistry(),
		scheduler: scheduler.New(),
	}
}

func (vm *VM) Registry() *module.Registry { return vm.registry }
func (vm *VM) Store() *cesk.Store         { return vm.store }
func (vm *VM) Halted() bool               { return vm.halted }
func (vm *VM) Blocked() bool              { return vm.blocked }
func (vm *VM) Value() value.Value         { return vm.result }
func (vm *VM) Steps() int                 { return vm.steps }

func (vm *VM) push(v value.Value) { vm.operand = append(vm.operand, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.operand) - 1
	v := vm.operand[n]
	vm.operand = vm.operand[:n]
	return v
}

func (vm *VM) Step() error {
	if vm.halted {
		return vm.err
	}
	if vm.blocked {
		vm.scheduler.WakeCheck(vm.streams.All())
		if entry, ok := vm.scheduler.PopRun(); ok {
			vm.push(entry.Value)
			vm.current.ip++
			vm.blocked = false
		}
		return nil
	}
	vm.steps++
	if err := vm.execute(); err != nil {
		vm.halted = true
		vm.err = err
		return err
	}
	return nil
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

func (vm *VM) execute() error {
	f := vm.current
	instr := vm.prog.Code[f.ip]
	switch instr.Op {
	case OpLiteral:
		vm.push(vm.prog.Constants[instr.Operand])
		f.ip++

	case OpLoad:
		vm.push(f.locals[instr.Operand])
		f.ip++

	case OpLoadV:
		name := vm.prog.Constants[instr.Operand].Str
		v, ok := cesk.Resolve(name, f.env, vm.store, vm.registry)
		if !ok {
			v = value.Nil()
		}
		vm.push(v)
		f.ip++

	case OpLambda:
		params := vm.prog.ParamSets[instr.Aux]
		cl := &value.Closure{Params: params, Env: f.env, BodyAddr: instr.Operand, HasAddr: true}
		vm.push(value.ClosureOf(cl))
		f.ip++

	case OpCall:
		argCount := instr.Operand
		args := make([]value.Value, argCount)
		for i := argCount - 1; i >= 0; i-- {
			args[i] = vm.pop()
		}
		fn := vm.pop()
		switch fn.Kind {
		case value.KindClosure:
			next := &frame{
				locals: args,
				env:    fn.Closure.Env.ExtendAll(fn.Closure.Params, args),
				ip:     fn.Closure.BodyAddr,
				caller: f,
			}
			f.ip++
			vm.current = next
		case value.KindNative:
			result, err := fn.Native(args)
			if err != nil {
				return err
			}
			if result.Kind == value.KindEffect {
				return vm.applyEffect(result.Effect)
			}
			vm.push(result)
			f.ip++
		default:
			return cesk.ApplyNonFunction(int64(f.ip), fn)
		}

	case OpReturn:
		v := vm.pop()
		if f.caller == nil {
			vm.result = v
			vm.halted = true
			return nil
		}
		vm.push(v)
		vm.current = f.caller

	case OpJumpFalse:
		test := vm.pop()
		if test.Truthy() {
			f.ip++
		} else {
			f.ip = f.ip + 1 + instr.Operand
		}

	case OpJump:
		f.ip = f.ip + 1 + instr.Operand

	case OpGensym:
		vm.gensymCounter++
		vm.push(value.Symbol(fmt.Sprintf("%s%d", vm.prog.Constants[instr.Operand].Str, vm.gensymCounter)))
		f.ip++

	case OpStoreGet:
		key := vm.prog.Constants[instr.Operand].Str
		v, ok := vm.store.Get(key)
		if !ok {
			v = value.Nil()
		}
		vm.push(v)
		f.ip++

	case OpStorePut:
		val := vm.pop()
		key := vm.prog.Constants[instr.Operand].Str
		vm.store.Put(key, val)
		vm.push(value.Nil())
		f.ip++

	case OpStreamMake:
		buf := vm.pop()
		return vm.applyEffect(module.StreamMakeEffect(buf).Effect)

	case OpStreamPut:
		val := vm.pop()
		target := vm.pop()
		return vm.applyEffect(module.StreamPutEffect(target, val).Effect)

	case OpStreamCursor:
		source := vm.pop()
		return vm.applyEffect(module.StreamCursorEffect(source).Effect)

	case OpStreamNext:
		cursor := vm.pop()
		return vm.applyEffect(module.StreamNextEffect(cursor).Effect)

	case OpStreamClose:
		source := vm.pop()
		return vm.applyEffect(module.StreamCloseEffect(source).Effect)

	default:
		return cesk.UnknownOpcode(int64(f.ip), int(instr.Op))
	}
	return nil
}

func (vm *VM) applyEffect(eff *value.Effect) error {
	f := vm.current
	result, park, err := cesk.ApplyEffect(int64(f.ip), eff, vm.store, vm.streams)
	if err != nil {
		return err
	}
	if park != nil {
		switch park.Reason {
		case cesk.ParkNext:
			vm.scheduler.ParkNext(parkedPush{}, value.NewEnv(), park.StreamID, park.Cursor)
		case cesk.ParkPut:
			vm.scheduler.ParkPut(parkedPush{}, value.NewEnv(), park.StreamID, park.Pending)
		}
		vm.blocked = true
		return nil
	}
	vm.push(result)
	f.ip++
	return nil
}
