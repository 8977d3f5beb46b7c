package stackvm

import "fmt"

// assemble resolves labels in two passes, exactly as regvm's does,
// except OpJumpFalse/OpJump store an offset relative to the
// instruction following the jump rather than an absolute address.
func (c *Compiler) assemble(entryLabel string) (*Program, error) {
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
	pos := 0
	for _, instr := range c.prog {
		if instr.Op == symLabel {
			continue
		}
		numeric, err := toNumeric(instr, pos, labelAddr)
		if err != nil {
			return nil, err
		}
		code = append(code, numeric)
		pos++
	}

	entryAddr, ok := labelAddr[entryLabel]
	if !ok {
		return nil, fmt.Errorf("stackvm: entry label %q never defined", entryLabel)
	}

	return &Program{
		Code:      code,
		Constants: c.consts,
		ParamSets: c.paramSets,
		EntryAddr: entryAddr,
		symbolic:  c.prog,
	}, nil
}

func toNumeric(instr symInstr, pos int, labelAddr map[string]int) (Instruction, error) {
	resolveAbs := func(label string) (int, error) {
		addr, ok := labelAddr[label]
		if !ok {
			return 0, fmt.Errorf("stackvm: undefined label %q", label)
		}
		return addr, nil
	}
	resolveRel := func(label string) (int, error) {
		addr, err := resolveAbs(label)
		if err != nil {
			return 0, err
		}
		return addr - (pos + 1), nil
	}
	switch instr.Op {
	case symLiteral:
		return Instruction{Op: OpLiteral, Operand: instr.Operand}, nil
	case symLoad:
		return Instruction{Op: OpLoad, Operand: instr.Operand}, nil
	case symLoadV:
		return Instruction{Op: OpLoadV, Operand: instr.Operand}, nil
	case symLambda:
		addr, err := resolveAbs(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpLambda, Operand: addr, Aux: instr.Aux}, nil
	case symCall:
		return Instruction{Op: OpCall, Operand: instr.Operand}, nil
	case symReturn:
		return Instruction{Op: OpReturn}, nil
	case symJumpFalse:
		offset, err := resolveRel(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpJumpFalse, Operand: offset}, nil
	case symJump:
		offset, err := resolveRel(instr.Target)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: OpJump, Operand: offset}, nil
	case symGensym:
		return Instruction{Op: OpGensym, Operand: instr.Operand}, nil
	case symStoreGet:
		return Instruction{Op: OpStoreGet, Operand: instr.Operand}, nil
	case symStorePut:
		return Instruction{Op: OpStorePut, Operand: instr.Operand}, nil
	case symStreamMake:
		return Instruction{Op: OpStreamMake}, nil
	case symStreamPut:
		return Instruction{Op: OpStreamPut}, nil
	case symStreamCursor:
		return Instruction{Op: OpStreamCursor}, nil
	case symStreamNext:
		return Instruction{Op: OpStreamNext}, nil
	case symStreamClose:
		return Instruction{Op: OpStreamClose}, nil
	default:
		return Instruction{}, fmt.Errorf("stackvm: cannot assemble symbolic op %q", instr.Op)
	}
}
