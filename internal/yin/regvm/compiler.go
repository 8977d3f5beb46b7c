package regvm

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/value"
)

// scope tracks which names the function currently being compiled has
// bound directly to a register (its own parameters) and the next free
// register. A name not in scope compiles to a runtime OpLoadV lookup.
type scope struct {
	locals map[string]int
	next   int
}

func newScope(params []string) *scope {
	s := &scope{locals: make(map[string]int, len(params))}
	for i, p := range params {
		s.locals[p] = i
	}
	s.next = len(params)
	return s
}

func (s *scope) alloc() int {
	r := s.next
	s.next++
	return r
}

type pendingFunc struct {
	label  string
	params []string
	body   ast.Node
}

// Compiler accumulates a flat symbolic instruction stream across every
// function compiled from a program, plus shared constant/param/arg
// tables, processing nested lambdas breadth-first via a work queue.
type Compiler struct {
	prog      []symInstr
	consts    []value.Value
	paramSets [][]string
	argSets   [][]int
	labelSeq  int
	pending   []pendingFunc
}

func (c *Compiler) newLabel(prefix string) string {
	c.labelSeq++
	return fmt.Sprintf("%s%d", prefix, c.labelSeq)
}

func (c *Compiler) addConst(v value.Value) int {
	c.consts = append(c.consts, v)
	return len(c.consts) - 1
}

func (c *Compiler) emit(i symInstr) { c.prog = append(c.prog, i) }

// Compile lowers root into an assembled Program.
func Compile(root ast.Node) (*Program, error) {
	c := &Compiler{}
	entryLabel := c.newLabel("entry")
	c.pending = append(c.pending, pendingFunc{label: entryLabel, body: root})

	labelRegCount := make(map[string]int)
	for len(c.pending) > 0 {
		pf := c.pending[0]
		c.pending = c.pending[1:]
		c.emit(symInstr{Op: symLabel, Name: pf.label})
		sc := newScope(pf.params)
		result, err := c.compileExpr(pf.body, sc)
		if err != nil {
			return nil, err
		}
		c.emit(symInstr{Op: symReturn, A: result})
		labelRegCount[pf.label] = sc.next
	}
	for i, instr := range c.prog {
		if instr.Op == symClosure {
			c.prog[i].C = labelRegCount[instr.Target]
		}
	}
	return c.assemble(entryLabel, labelRegCount[entryLabel])
}

func (c *Compiler) compileExpr(n ast.Node, sc *scope) (int, error) {
	switch node := n.(type) {
	case ast.Literal:
		r := sc.alloc()
		c.emit(symInstr{Op: symLoadK, A: r, B: c.addConst(toValue(node.Value))})
		return r, nil

	case ast.Variable:
		if reg, ok := sc.locals[node.Name]; ok {
			return reg, nil
		}
		r := sc.alloc()
		c.emit(symInstr{Op: symLoadV, A: r, B: c.addConst(value.String(node.Name))})
		return r, nil

	case ast.Lambda:
		label := c.newLabel("fn")
		c.pending = append(c.pending, pendingFunc{label: label, params: node.Params, body: node.Body})
		paramsIdx := len(c.paramSets)
		c.paramSets = append(c.paramSets, append([]string(nil), node.Params...))
		r := sc.alloc()
		c.emit(symInstr{Op: symClosure, A: r, D: paramsIdx, Target: label})
		return r, nil

	case ast.Application:
		fnReg, err := c.compileExpr(node.Operator, sc)
		if err != nil {
			return 0, err
		}
		argRegs := make([]int, len(node.Operands))
		for i, operand := range node.Operands {
			r, err := c.compileExpr(operand, sc)
			if err != nil {
				return 0, err
			}
			argRegs[i] = r
		}
		argIdx := len(c.argSets)
		c.argSets = append(c.argSets, argRegs)
		dst := sc.alloc()
		c.emit(symInstr{Op: symCall, A: dst, B: fnReg, C: argIdx})
		return dst, nil

	case ast.If:
		testReg, err := c.compileExpr(node.Test, sc)
		if err != nil {
			return 0, err
		}
		elseLabel := c.newLabel("else")
		endLabel := c.newLabel("endif")
		c.emit(symInstr{Op: symJumpFalse, A: testReg, Target: elseLabel})
		dst := sc.alloc()
		consReg, err := c.compileExpr(node.Consequent, sc)
		if err != nil {
			return 0, err
		}
		c.emit(symInstr{Op: symMove, A: dst, B: consReg})
		c.emit(symInstr{Op: symJump, Target: endLabel})
		c.emit(symInstr{Op: symLabel, Name: elseLabel})
		altReg, err := c.compileExpr(node.Alternate, sc)
		if err != nil {
			return 0, err
		}
		c.emit(symInstr{Op: symMove, A: dst, B: altReg})
		c.emit(symInstr{Op: symLabel, Name: endLabel})
		return dst, nil

	case ast.Gensym:
		r := sc.alloc()
		c.emit(symInstr{Op: symGensym, A: r, B: c.addConst(value.String(node.Prefix))})
		return r, nil

	case ast.StoreGet:
		r := sc.alloc()
		c.emit(symInstr{Op: symStoreGet, A: r, B: c.addConst(value.String(node.Key))})
		return r, nil

	case ast.StorePut:
		valReg, err := c.compileExpr(node.Val, sc)
		if err != nil {
			return 0, err
		}
		c.emit(symInstr{Op: symStorePut, A: c.addConst(value.String(node.Key)), B: valReg})
		r := sc.alloc()
		c.emit(symInstr{Op: symLoadK, A: r, B: c.addConst(value.Nil())})
		return r, nil

	case ast.StreamMake:
		bufReg := sc.alloc()
		c.emit(symInstr{Op: symLoadK, A: bufReg, B: c.addConst(toValue(node.Buffer))})
		r := sc.alloc()
		c.emit(symInstr{Op: symStreamMake, A: r, B: bufReg})
		return r, nil

	case ast.StreamPut:
		targetReg, err := c.compileExpr(node.Target, sc)
		if err != nil {
			return 0, err
		}
		valReg, err := c.compileExpr(node.Val, sc)
		if err != nil {
			return 0, err
		}
		dst := sc.alloc()
		c.emit(symInstr{Op: symStreamPut, A: dst, B: targetReg, C: valReg})
		return dst, nil

	case ast.StreamCursor:
		sourceReg, err := c.compileExpr(node.Source, sc)
		if err != nil {
			return 0, err
		}
		dst := sc.alloc()
		c.emit(symInstr{Op: symStreamCursor, A: dst, B: sourceReg})
		return dst, nil

	case ast.StreamNext:
		sourceReg, err := c.compileExpr(node.Source, sc)
		if err != nil {
			return 0, err
		}
		dst := sc.alloc()
		c.emit(symInstr{Op: symStreamNext, A: dst, B: sourceReg})
		return dst, nil

	case ast.StreamClose:
		sourceReg, err := c.compileExpr(node.Source, sc)
		if err != nil {
			return 0, err
		}
		dst := sc.alloc()
		c.emit(symInstr{Op: symStreamClose, A: dst, B: sourceReg})
		return dst, nil

	default:
		return 0, fmt.Errorf("regvm: cannot compile node of type %T", n)
	}
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
