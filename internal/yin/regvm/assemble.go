package regvm

import "fmt"

// assemble resolves every label to a numeric address in two passes:
// the first walks the symbolic stream computing addresses and records
// each label's position; the second rewrites jump and closure-body
// targets using the table the first pass built, dropping label
// pseudo-instructions from the final Code.
func (c *Compiler) assemble(entryLabel string, entryRegCount int) (*Program, error) {
	addr := 0
	labelAddr := make(map[string]int)
	for _, instr := range c.prog {
		if instr.Op == symLabel {
			labelAddr[instr.Name] = addr
			continue
		}
		addr++
	}

	code := make([]Instruction, 0, addr)
	for _, instr := range c.prog {
		if instr.Op == symLabel {
			continue
		}
		numeric, err := toNumeric(instr, labelAddr)
		if err != nil {
			return nil, err
		}
		code = append(code, numeric)
	}

	entryAddr, ok := labelAddr[entryLabel]
	if !ok {
		return nil, fmt.Errorf("regvm: entry label %q never defined", entryLabel)
	}

	return &Program{
		Code:          code,
		Constants:     c.consts,
		ParamSets:     c.paramSets,
		ArgSets:       c.argSets,
		EntryAddr:     entryAddr,
		EntryRegCount: entryRegCount,
		symbolic:      c.prog,
	}, nil
}

func toNumeric(instr symInstr, labelAddr map[string]int) (Instruction, error) {
	resolve := func(label string) (int, error) {
		addr, ok := labelAddr[label]
		if !ok {
			return 0, fmt.Errorf("regvm: undefined label %q", label)
		}
		return addr, nil
	}
	switch instr.Op {
	case symLoadK:
		return Instruction{Op: OpLoadK, A: instr.A, B: instr.B}, nil
	case symLoadV:
		return Instruction{Op: OpLoadV, A: instr.A, B: instr.B}, nil
	case symMove:
		return Instruction{Op: OpMove, A: instr.A, B: instr.B}, nil
	case symClosure:
		addr, err := resolve(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpClosure, A: instr.A, B: addr, C: instr.C, D: instr.D}, nil
	case symCall:
		return Instruction{Op: OpCall, A: instr.A, B: instr.B, C: instr.C}, nil
	case symReturn:
		return Instruction{Op: OpReturn, A: instr.A}, nil
	case symJumpFalse:
		addr, err := resolve(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpJumpFalse, A: instr.A, B: addr}, nil
	case symJump:
		addr, err := resolve(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpJump, B: addr}, nil
	case symGensym:
		return Instruction{Op: OpGensym, A: instr.A, B: instr.B}, nil
	case symStoreGet:
		return Instruction{Op: OpStoreGet, A: instr.A, B: instr.B}, nil
	case symStorePut:
		return Instruction{Op: OpStorePut, A: instr.A, B: instr.B}, nil
	case symStreamMake:
		return Instruction{Op: OpStreamMake, A: instr.A, B: instr.B}, nil
	case symStreamPut:
		return Instruction{Op: OpStreamPut, A: instr.A, B: instr.B, C: instr.C}, nil
	case symStreamCursor:
		return Instruction{Op: OpStreamCursor, A: instr.A, B: instr.B}, nil
	case symStreamNext:
		return Instruction{Op: OpStreamNext, A: instr.A, B: instr.B}, nil
	case symStreamClose:
		return Instruction{Op: OpStreamClose, A: instr.A, B: instr.B}, nil
	default:
		return Instruction{}, fmt.Errorf("regvm: cannot assemble symbolic op %q", instr.Op)
	}
}
