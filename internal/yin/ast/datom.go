// Package ast defines the Universal Abstract Syntax Tree node set, the
// flat datom quintuple it projects into, and the bijective lowering
// between the two.
package ast

import "fmt"

// Attr is a namespaced attribute symbol from the fixed schema.
type Attr string

const (
	AttrType        Attr = "yin/type"
	AttrValue       Attr = "yin/value"
	AttrName        Attr = "yin/name"
	AttrParams      Attr = "yin/params"
	AttrBody        Attr = "yin/body"
	AttrOperator    Attr = "yin/operator"
	AttrOperands    Attr = "yin/operands"
	AttrTest        Attr = "yin/test"
	AttrConsequent  Attr = "yin/consequent"
	AttrAlternate   Attr = "yin/alternate"
	AttrSource      Attr = "yin/source"
	AttrTarget      Attr = "yin/target"
	AttrVal         Attr = "yin/val"
	AttrBuffer      Attr = "yin/buffer"
	AttrKey         Attr = "yin/key"
	AttrPrefix      Attr = "yin/prefix"
	AttrContentHash Attr = "yin/content-hash"
)

// refAttrs are the attributes whose value is a single entity id.
var refAttrs = map[Attr]bool{
	AttrOperator:   true,
	AttrBody:       true,
	AttrTest:       true,
	AttrConsequent: true,
	AttrAlternate:  true,
	AttrSource:     true,
	AttrTarget:     true,
	AttrVal:        true,
}

// IsRef reports whether a is a reference-valued attribute.
func IsRef(a Attr) bool { return refAttrs[a] }

// IsCardinalityMany reports whether a may hold a vector of references.
// yin/operands is the single cardinality-many ref attribute.
func IsCardinalityMany(a Attr) bool { return a == AttrOperands }

// NodeType discriminates U-AST node kinds via yin/type.
type NodeType string

const (
	TypeLiteral     NodeType = "literal"
	TypeVariable    NodeType = "variable"
	TypeLambda      NodeType = "lambda"
	TypeApplication NodeType = "application"
	TypeIf          NodeType = "if"
	TypeGensym      NodeType = "vm/gensym"
	TypeStoreGet    NodeType = "vm/store-get"
	TypeStorePut    NodeType = "vm/store-put"
	TypeStreamMake  NodeType = "stream/make"
	TypeStreamPut   NodeType = "stream/put"
	TypeStreamCursor NodeType = "stream/cursor"
	TypeStreamNext  NodeType = "stream/next"
	TypeStreamClose NodeType = "stream/close"
)

// DerivedMeta marks a datom as derived (e.g. a content-hash annotation)
// rather than part of the original AST projection.
const DerivedMeta int64 = 1

// Datom is the quintuple (e, a, v, t, m): entity, attribute, value,
// transaction, metadata.
type Datom struct {
	E int64
	A Attr
	V interface{} // scalar | int64 (ref) | []int64 (cardinality-many refs)
	T int64
	M int64
}

func (d Datom) String() string {
	return fmt.Sprintf("(%d %s %v t=%d m=%d)", d.E, d.A, d.V, d.T, d.M)
}

// IsDerived reports whether the datom was synthesized (e.g. a content
// hash annotation) rather than part of the original AST projection.
func (d Datom) IsDerived() bool { return d.M == DerivedMeta }

// Ref returns the entity id v when v is a single reference, or false.
func Ref(v interface{}) (int64, bool) {
	id, ok := v.(int64)
	return id, ok
}

// RefVec returns the ordered reference list when v is a cardinality-many
// value, or false.
func RefVec(v interface{}) ([]int64, bool) {
	ids, ok := v.([]int64)
	return ids, ok
}
