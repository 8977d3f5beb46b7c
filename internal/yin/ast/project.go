package ast

// Projector assigns tempids from a strictly decreasing counter and
// walks a Node tree into its datom projection. The
// counter is allocated for a node before its children are visited, so
// the root always receives the largest (least negative) id and every
// dependency a smaller one — a free topological order, root = max.
type Projector struct {
	next int64
	t    int64
}

// NewProjector returns a projector whose first allocated id is -1 and
// whose emitted datoms carry transaction id t.
func NewProjector(t int64) *Projector {
	return &Projector{next: -1, t: t}
}

func (p *Projector) alloc() int64 {
	id := p.next
	p.next--
	return id
}

// Project walks n and returns its entity id and the complete datom set
// for n and every descendant, in allocation order.
func (p *Projector) Project(n Node) (int64, []Datom) {
	var out []Datom
	id := p.project(n, &out)
	return id, out
}

func (p *Projector) emit(out *[]Datom, e int64, a Attr, v interface{}) {
	*out = append(*out, Datom{E: e, A: a, V: v, T: p.t})
}

func (p *Projector) project(n Node, out *[]Datom) int64 {
	id := p.alloc()
	switch node := n.(type) {
	case Literal:
		p.emit(out, id, AttrType, TypeLiteral)
		p.emit(out, id, AttrValue, node.Value)
	case Variable:
		p.emit(out, id, AttrType, TypeVariable)
		p.emit(out, id, AttrName, node.Name)
	case Lambda:
		p.emit(out, id, AttrType, TypeLambda)
		p.emit(out, id, AttrParams, append([]string(nil), node.Params...))
		bodyID := p.project(node.Body, out)
		p.emit(out, id, AttrBody, bodyID)
	case Application:
		p.emit(out, id, AttrType, TypeApplication)
		opID := p.project(node.Operator, out)
		p.emit(out, id, AttrOperator, opID)
		operandIDs := make([]int64, len(node.Operands))
		for i, operand := range node.Operands {
			operandIDs[i] = p.project(operand, out)
		}
		p.emit(out, id, AttrOperands, operandIDs)
	case If:
		p.emit(out, id, AttrType, TypeIf)
		testID := p.project(node.Test, out)
		consID := p.project(node.Consequent, out)
		altID := p.project(node.Alternate, out)
		p.emit(out, id, AttrTest, testID)
		p.emit(out, id, AttrConsequent, consID)
		p.emit(out, id, AttrAlternate, altID)
	case Gensym:
		p.emit(out, id, AttrType, TypeGensym)
		p.emit(out, id, AttrPrefix, node.Prefix)
	case StoreGet:
		p.emit(out, id, AttrType, TypeStoreGet)
		p.emit(out, id, AttrKey, node.Key)
	case StorePut:
		p.emit(out, id, AttrType, TypeStorePut)
		p.emit(out, id, AttrKey, node.Key)
		valID := p.project(node.Val, out)
		p.emit(out, id, AttrVal, valID)
	case StreamMake:
		p.emit(out, id, AttrType, TypeStreamMake)
		p.emit(out, id, AttrBuffer, node.Buffer)
	case StreamPut:
		p.emit(out, id, AttrType, TypeStreamPut)
		targetID := p.project(node.Target, out)
		valID := p.project(node.Val, out)
		p.emit(out, id, AttrTarget, targetID)
		p.emit(out, id, AttrVal, valID)
	case StreamCursor:
		p.emit(out, id, AttrType, TypeStreamCursor)
		sourceID := p.project(node.Source, out)
		p.emit(out, id, AttrSource, sourceID)
	case StreamNext:
		p.emit(out, id, AttrType, TypeStreamNext)
		sourceID := p.project(node.Source, out)
		p.emit(out, id, AttrSource, sourceID)
	case StreamClose:
		p.emit(out, id, AttrType, TypeStreamClose)
		sourceID := p.project(node.Source, out)
		p.emit(out, id, AttrSource, sourceID)
	}
	return id
}

// Project is a convenience wrapper over a fresh Projector with
// transaction id 0.
func Project(n Node) (int64, []Datom) {
	return NewProjector(0).Project(n)
}
