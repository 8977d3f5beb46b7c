package regvm

import "github.com/sonwh98/yin/internal/yin/value"

// symOp is a symbolic mnemonic, the compiler's output before addresses
// are known. A label pseudo-instruction carries no runtime effect; it
// only marks a position for the assembler's two-pass fixup.
type symOp string

const (
	symLoadK        symOp = "loadk"
	symLoadV        symOp = "loadv"
	symMove         symOp = "move"
	symClosure      symOp = "closure"
	symCall         symOp = "call"
	symReturn       symOp = "return"
	symJumpFalse    symOp = "jump-false"
	symJump         symOp = "jump"
	symGensym       symOp = "gensym"
	symStoreGet     symOp = "sget"
	symStorePut     symOp = "sput"
	symStreamMake   symOp = "stream-make"
	symStreamPut    symOp = "stream-put"
	symStreamCursor symOp = "stream-cursor"
	symStreamNext   symOp = "stream-next"
	symStreamClose  symOp = "stream-close"
	symLabel        symOp = "label"
)

// symInstr is one symbolic instruction. Target names a label for jumps
// and closure bodies; Name identifies a label pseudo-instruction.
type symInstr struct {
	Op     symOp
	A, B, C, D int
	Target string
	Name   string
}

func (i symInstr) String() string {
	if i.Op == symLabel {
		return i.Name + ":"
	}
	if i.Target != "" {
		return string(i.Op) + " " + i.Target
	}
	return string(i.Op)
}

// Program is the assembled, directly executable form: a flat
// instruction stream plus the side tables its operands index into.
type Program struct {
	Code            []Instruction
	Constants       []value.Value
	ParamSets       [][]string
	ArgSets         [][]int
	EntryAddr       int
	EntryRegCount   int
	symbolic        []symInstr // retained for Disassemble and fidelity tests
}

// Disassemble renders the program's original symbolic form, which by
// construction assembles to exactly Code (tests/binary fidelity).
func (p *Program) Disassemble() []string {
	lines := make([]string, 0, len(p.symbolic))
	for _, instr := range p.symbolic {
		lines = append(lines, instr.String())
	}
	return lines
}
