package stackvm

import "github.com/sonwh98/yin/internal/yin/value"

type symOp string

const (
	symLiteral      symOp = "push"
	symLoad         symOp = "load"
	symLoadV        symOp = "loadv"
	symLambda       symOp = "lambda"
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

type symInstr struct {
	Op      symOp
	Operand int
	Aux     int
	Target  string
	Name    string
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

// Program is the assembled, directly executable form.
type Program struct {
	Code      []Instruction
	Constants []value.Value
	ParamSets [][]string
	EntryAddr int
	symbolic  []symInstr
}

// Disassemble renders the program's original symbolic form, the basis
// of the fidelity tests comparing it against the assembled Code.
func (p *Program) Disassemble() []string {
	lines := make([]string, 0, len(p.symbolic))
	for _, instr := range p.symbolic {
		lines = append(lines, instr.String())
	}
	return lines
}
