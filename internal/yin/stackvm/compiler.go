package stackvm

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/value"
)

type scope struct {
	locals map[string]int
}

func newScope(params []string) *scope {
	s := &scope{locals: make(map[string]int, len(params))}
	for i, p := range params {
		s.locals[p] = i
	}
	return s
}

type pendingFunc struct {
	label  string
	params []string
	body   ast.Node
}

// Compiler accumulates a flat symbolic instruction stream across every
// function compiled from a program, processing nested lambdas
// breadth-first via a work queue, exactly as regvm.Compiler does.
type Compiler struct {
	prog      []symInstr
	consts    []value.Value
	paramSets [][]string
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

	for len(c.pending) > 0 {
		pf := c.pending[0]
		c.pending = c.pending[1:]
		c.emit(symInstr{Op: symLabel, Name: pf.label})
		sc := newScope(pf.params)
		if err := c.compileExpr(pf.body, sc); err != nil {
			return nil, err
		}
		c.emit(symInstr{Op: symReturn})
	}
	return c.assemble(entryLabel)
}

func (c *Compiler) compileExpr(n ast.Node, sc *scope) error {
	switch node := n.(type) {
	case ast.Literal:
		c.emit(symInstr{Op: symLiteral, Operand: c.addConst(toValue(node.Value))})
		return nil

	case ast.Variable:
		if idx, ok := sc.locals[node.Name]; ok {
			c.emit(symInstr{Op: symLoad, Operand: idx})
			return nil
		}
		c.emit(symInstr{Op: symLoadV, Operand: c.addConst(value.String(node.Name))})
		return nil

	case ast.Lambda:
		label := c.newLabel("fn")
		c.pending = append(c.pending, pendingFunc{label: label, params: node.Params, body: node.Body})
		paramsIdx := len(c.paramSets)
		c.paramSets = append(c.paramSets, append([]string(nil), node.Params...))
		c.emit(symInstr{Op: symLambda, Aux: paramsIdx, Target: label})
		return nil

	case ast.Application:
		if err := c.compileExpr(node.Operator, sc); err != nil {
			return err
		}
		for _, operand := range node.Operands {
			if err := c.compileExpr(operand, sc); err != nil {
				return err
			}
		}
		c.emit(symInstr{Op: symCall, Operand: len(node.Operands)})
		return nil

	case ast.If:
		if err := c.compileExpr(node.Test, sc); err != nil {
			return err
		}
		elseLabel := c.newLabel("else")
		endLabel := c.newLabel("endif")
		c.emit(symInstr{Op: symJumpFalse, Target: elseLabel})
		if err := c.compileExpr(node.Consequent, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symJump, Target: endLabel})
		c.emit(symInstr{Op: symLabel, Name: elseLabel})
		if err := c.compileExpr(node.Alternate, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symLabel, Name: endLabel})
		return nil

	case ast.Gensym:
		c.emit(symInstr{Op: symGensym, Operand: c.addConst(value.String(node.Prefix))})
		return nil

	case ast.StoreGet:
		c.emit(symInstr{Op: symStoreGet, Operand: c.addConst(value.String(node.Key))})
		return nil

	case ast.StorePut:
		if err := c.compileExpr(node.Val, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symStorePut, Operand: c.addConst(value.String(node.Key))})
		return nil

	case ast.StreamMake:
		c.emit(symInstr{Op: symLiteral, Operand: c.addConst(toValue(node.Buffer))})
		c.emit(symInstr{Op: symStreamMake})
		return nil

	case ast.StreamPut:
		if err := c.compileExpr(node.Target, sc); err != nil {
			return err
		}
		if err := c.compileExpr(node.Val, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symStreamPut})
		return nil

	case ast.StreamCursor:
		if err := c.compileExpr(node.Source, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symStreamCursor})
		return nil

	case ast.StreamNext:
		if err := c.compileExpr(node.Source, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symStreamNext})
		return nil

	case ast.StreamClose:
		if err := c.compileExpr(node.Source, sc); err != nil {
			return err
		}
		c.emit(symInstr{Op: symStreamClose})
		return nil

	default:
		return fmt.Errorf("stackvm: cannot compile node of type %T", n)
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
