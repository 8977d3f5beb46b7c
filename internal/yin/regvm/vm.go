package regvm

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/cesk"
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/scheduler"
	"github.com/sonwh98/yin/internal/yin/trace"
	"github.com/sonwh98/yin/internal/yin/value"
)

// callFrame is one activation record: a register file sized by the
// compiler's recorded RegCount, the environment closed over at the
// call site (used only by OpLoadV's fallback to Resolve), and the
// caller link needed to propagate a return value and instruction
// pointer on OpReturn.
type callFrame struct {
	regs    []value.Value
	env     value.Env
	ip      int
	destReg int
	caller  *callFrame
}

// parkedCall is the continuation captured when an effect parks:
// exactly which frame was waiting and which of its registers the
// resumed value must land in.
type parkedCall struct {
	frame   *callFrame
	destReg int
}

// VM executes an assembled Program. It implements cesk.VM.
type VM struct {
	prog  *Program
	frame *callFrame

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

	trace *trace.Sink
}

// SetTrace attaches a trace sink; every subsequent step is recorded
// against it until detached with SetTrace(nil). The register backend
// is the first to wire tracing in, per the open question on which VM
// carries it first.
func (vm *VM) SetTrace(s *trace.Sink) { vm.trace = s }

// New returns a VM ready to run prog from its entry point.
func New(prog *Program) *VM {
	return &VM{
		prog:      prog,
		frame:     &callFrame{regs: make([]value.Value, prog.EntryRegCount), env: value.NewEnv(), ip: prog.EntryAddr},
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

func (vm *VM) Step() error {
	if vm.halted {
		return vm.err
	}
	if vm.blocked {
		vm.scheduler.WakeCheck(vm.streams.All())
		if entry, ok := vm.scheduler.PopRun(); ok {
			pc := entry.Continuation.(*parkedCall)
			pc.frame.regs[pc.destReg] = entry.Value
			pc.frame.ip++
			vm.frame = pc.frame
			vm.blocked = false
		}
		return nil
	}
	vm.steps++
	pre := vm.frame
	ipBefore := pre.ip
	op := vm.prog.Code[pre.ip].Op
	instr := vm.prog.Code[pre.ip]
	reads := preReadAccesses(op, instr, pre)

	if err := vm.execute(); err != nil {
		vm.halted = true
		vm.err = err
		return err
	}

	if vm.trace != nil {
		ev := trace.StepEvent{VM: "register", Op: op.String(), IPBefore: ipBefore, IPAfter: vm.frame.ip, Reads: reads}
		if vm.frame == pre && !vm.blocked {
			ev.Writes = postWriteAccesses(op, instr, pre)
		}
		if op == OpJumpFalse {
			ev.HasBranch = true
			ev.BranchTaken = vm.frame.ip == instr.B
		}
		if op == OpCall {
			ev.CallTarget = fmt.Sprintf("r%d", instr.B)
		}
		if op == OpReturn {
			ev.HasReturn = true
			ev.ReturnKind = reads[0].Type
		}
		if vm.trace.DueForSnapshot() {
			ev.Snapshot = snapshotOf(vm.frame)
		}
		vm.trace.Step(ev)
	}
	return nil
}

func (vm *VM) Run() error {
	startIP := vm.frame.ip
	for !vm.halted {
		wasBlocked := vm.blocked
		if err := vm.Step(); err != nil {
			vm.emitRunTrace(startIP, "error")
			return err
		}
		if wasBlocked && vm.blocked {
			vm.emitRunTrace(startIP, "blocked")
			return nil
		}
	}
	reason := "halted"
	if vm.err != nil {
		reason = "error"
	}
	vm.emitRunTrace(startIP, reason)
	return vm.err
}

func (vm *VM) emitRunTrace(startIP int, reason string) {
	if vm.trace == nil {
		return
	}
	vm.trace.Run(trace.RunEvent{VM: "register", ProgramID: fmt.Sprintf("%p", vm.prog), StartIP: startIP, EndReason: reason, Steps: vm.steps})
}

// preReadAccesses captures the registers an instruction reads, valued
// before execute runs.
func preReadAccesses(op Opcode, instr Instruction, f *callFrame) []trace.RegisterAccess {
	typ := func(i int) string {
		if i >= 0 && i < len(f.regs) {
			return f.regs[i].Kind.String()
		}
		return ""
	}
	switch op {
	case OpMove:
		return []trace.RegisterAccess{{Index: instr.B, Type: typ(instr.B)}}
	case OpCall:
		return []trace.RegisterAccess{{Index: instr.B, Type: typ(instr.B)}}
	case OpReturn, OpJumpFalse:
		return []trace.RegisterAccess{{Index: instr.A, Type: typ(instr.A)}}
	case OpStorePut:
		return []trace.RegisterAccess{{Index: instr.B, Type: typ(instr.B)}}
	case OpStreamMake, OpStreamCursor, OpStreamNext, OpStreamClose:
		return []trace.RegisterAccess{{Index: instr.B, Type: typ(instr.B)}}
	case OpStreamPut:
		return []trace.RegisterAccess{{Index: instr.B, Type: typ(instr.B)}, {Index: instr.C, Type: typ(instr.C)}}
	default:
		return nil
	}
}

// postWriteAccesses captures the registers an instruction wrote,
// valued after execute runs. Only called when f is still the current
// frame and the step did not park, since a closure call's or a
// return's eventual write lands on a different frame than the one
// this instruction belongs to.
func postWriteAccesses(op Opcode, instr Instruction, f *callFrame) []trace.RegisterAccess {
	typ := func(i int) string {
		if i >= 0 && i < len(f.regs) {
			return f.regs[i].Kind.String()
		}
		return ""
	}
	switch op {
	case OpLoadK, OpLoadV, OpMove, OpClosure, OpGensym, OpStoreGet, OpCall,
		OpStreamMake, OpStreamPut, OpStreamCursor, OpStreamNext, OpStreamClose:
		return []trace.RegisterAccess{{Index: instr.A, Type: typ(instr.A)}}
	default:
		return nil
	}
}

// snapshotOf renders a full register-file snapshot for periodic trace
// capture, at the default every-64-steps cadence.
func snapshotOf(f *callFrame) []trace.RegisterAccess {
	out := make([]trace.RegisterAccess, len(f.regs))
	for i, v := range f.regs {
		out[i] = trace.RegisterAccess{Index: i, Type: v.Kind.String()}
	}
	return out
}

func (vm *VM) execute() error {
	f := vm.frame
	instr := vm.prog.Code[f.ip]
	switch instr.Op {
	case OpLoadK:
		f.regs[instr.A] = vm.prog.Constants[instr.B]
		f.ip++

	case OpLoadV:
		name := vm.prog.Constants[instr.B].Str
		v, ok := cesk.Resolve(name, f.env, vm.store, vm.registry)
		if !ok {
			v = value.Nil()
		}
		f.regs[instr.A] = v
		f.ip++

	case OpMove:
		f.regs[instr.A] = f.regs[instr.B]
		f.ip++

	case OpClosure:
		params := vm.prog.ParamSets[instr.D]
		cl := &value.Closure{Params: params, Env: f.env, BodyAddr: instr.B, RegCount: instr.C, HasAddr: true}
		f.regs[instr.A] = value.ClosureOf(cl)
		f.ip++

	case OpCall:
		fn := f.regs[instr.B]
		argRegs := vm.prog.ArgSets[instr.C]
		args := make([]value.Value, len(argRegs))
		for i, r := range argRegs {
			args[i] = f.regs[r]
		}
		switch fn.Kind {
		case value.KindClosure:
			next := &callFrame{
				regs:    make([]value.Value, fn.Closure.RegCount),
				env:     fn.Closure.Env.ExtendAll(fn.Closure.Params, args),
				ip:      fn.Closure.BodyAddr,
				destReg: instr.A,
				caller:  f,
			}
			copy(next.regs, args)
			f.ip++
			vm.frame = next
		case value.KindNative:
			result, err := fn.Native(args)
			if err != nil {
				return err
			}
			if result.Kind == value.KindEffect {
				return vm.applyEffect(result.Effect, instr.A)
			}
			f.regs[instr.A] = result
			f.ip++
		default:
			return cesk.ApplyNonFunction(int64(f.ip), fn)
		}

	case OpReturn:
		v := f.regs[instr.A]
		if f.caller == nil {
			vm.result = v
			vm.halted = true
			return nil
		}
		f.caller.regs[f.destReg] = v
		vm.frame = f.caller

	case OpJumpFalse:
		if f.regs[instr.A].Truthy() {
			f.ip++
		} else {
			f.ip = instr.B
		}

	case OpJump:
		f.ip = instr.B

	case OpGensym:
		vm.gensymCounter++
		f.regs[instr.A] = value.Symbol(fmt.Sprintf("%s%d", vm.prog.Constants[instr.B].Str, vm.gensymCounter))
		f.ip++

	case OpStoreGet:
		key := vm.prog.Constants[instr.B].Str
		v, ok := vm.store.Get(key)
		if !ok {
			v = value.Nil()
		}
		f.regs[instr.A] = v
		f.ip++

	case OpStorePut:
		key := vm.prog.Constants[instr.A].Str
		vm.store.Put(key, f.regs[instr.B])
		f.ip++

	case OpStreamMake:
		return vm.applyEffect(module.StreamMakeEffect(f.regs[instr.B]).Effect, instr.A)

	case OpStreamPut:
		return vm.applyEffect(module.StreamPutEffect(f.regs[instr.B], f.regs[instr.C]).Effect, instr.A)

	case OpStreamCursor:
		return vm.applyEffect(module.StreamCursorEffect(f.regs[instr.B]).Effect, instr.A)

	case OpStreamNext:
		return vm.applyEffect(module.StreamNextEffect(f.regs[instr.B]).Effect, instr.A)

	case OpStreamClose:
		return vm.applyEffect(module.StreamCloseEffect(f.regs[instr.B]).Effect, instr.A)

	default:
		return cesk.UnknownOpcode(int64(f.ip), int(instr.Op))
	}
	return nil
}

func (vm *VM) applyEffect(eff *value.Effect, destReg int) error {
	f := vm.frame
	result, park, err := cesk.ApplyEffect(int64(f.ip), eff, vm.store, vm.streams)
	if err != nil {
		return err
	}
	if park != nil {
		pc := &parkedCall{frame: f, destReg: destReg}
		switch park.Reason {
		case cesk.ParkNext:
			vm.scheduler.ParkNext(pc, value.NewEnv(), park.StreamID, park.Cursor)
		case cesk.ParkPut:
			vm.scheduler.ParkPut(pc, value.NewEnv(), park.StreamID, park.Pending)
		}
		vm.blocked = true
		return nil
	}
	f.regs[destReg] = result
	f.ip++
	return nil
}
