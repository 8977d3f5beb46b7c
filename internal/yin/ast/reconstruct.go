package ast

import "fmt"

// Reconstruct reads entity root's attributes recursively out of ds and
// rebuilds the corresponding Node tree. Used to test the projection
// round-trip property.
func Reconstruct(ds *DatomSet, root int64) (Node, error) {
	nt, ok := ds.TypeOf(root)
	if !ok {
		return nil, &MalformedError{Entity: root, Reason: "missing yin/type"}
	}
	switch nt {
	case TypeLiteral:
		v, _ := ds.Get(root, AttrValue)
		return Literal{Value: v}, nil
	case TypeVariable:
		name, _ := ds.Get(root, AttrName)
		return Variable{Name: name.(string)}, nil
	case TypeLambda:
		paramsV, _ := ds.Get(root, AttrParams)
		bodyV, ok := ds.Get(root, AttrBody)
		if !ok {
			return nil, &MalformedError{Entity: root, Reason: "lambda missing yin/body"}
		}
		bodyID, _ := Ref(bodyV)
		body, err := Reconstruct(ds, bodyID)
		if err != nil {
			return nil, err
		}
		return Lambda{Params: paramsV.([]string), Body: body}, nil
	case TypeApplication:
		opV, ok := ds.Get(root, AttrOperator)
		if !ok {
			return nil, &MalformedError{Entity: root, Reason: "application missing yin/operator"}
		}
		opID, _ := Ref(opV)
		operator, err := Reconstruct(ds, opID)
		if err != nil {
			return nil, err
		}
		var operands []Node
		if operandsV, ok := ds.Get(root, AttrOperands); ok {
			ids, _ := RefVec(operandsV)
			for _, id := range ids {
				n, err := Reconstruct(ds, id)
				if err != nil {
					return nil, err
				}
				operands = append(operands, n)
			}
		}
		return Application{Operator: operator, Operands: operands}, nil
	case TypeIf:
		testID, _ := Ref(mustGet(ds, root, AttrTest))
		consID, _ := Ref(mustGet(ds, root, AttrConsequent))
		altID, _ := Ref(mustGet(ds, root, AttrAlternate))
		test, err := Reconstruct(ds, testID)
		if err != nil {
			return nil, err
		}
		cons, err := Reconstruct(ds, consID)
		if err != nil {
			return nil, err
		}
		alt, err := Reconstruct(ds, altID)
		if err != nil {
			return nil, err
		}
		return If{Test: test, Consequent: cons, Alternate: alt}, nil
	case TypeGensym:
		prefix, _ := ds.Get(root, AttrPrefix)
		return Gensym{Prefix: prefix.(string)}, nil
	case TypeStoreGet:
		key, _ := ds.Get(root, AttrKey)
		return StoreGet{Key: key.(string)}, nil
	case TypeStorePut:
		key, _ := ds.Get(root, AttrKey)
		valID, _ := Ref(mustGet(ds, root, AttrVal))
		val, err := Reconstruct(ds, valID)
		if err != nil {
			return nil, err
		}
		return StorePut{Key: key.(string), Val: val}, nil
	case TypeStreamMake:
		buffer, _ := ds.Get(root, AttrBuffer)
		return StreamMake{Buffer: buffer}, nil
	case TypeStreamPut:
		targetID, _ := Ref(mustGet(ds, root, AttrTarget))
		valID, _ := Ref(mustGet(ds, root, AttrVal))
		target, err := Reconstruct(ds, targetID)
		if err != nil {
			return nil, err
		}
		val, err := Reconstruct(ds, valID)
		if err != nil {
			return nil, err
		}
		return StreamPut{Target: target, Val: val}, nil
	case TypeStreamCursor:
		sourceID, _ := Ref(mustGet(ds, root, AttrSource))
		source, err := Reconstruct(ds, sourceID)
		if err != nil {
			return nil, err
		}
		return StreamCursor{Source: source}, nil
	case TypeStreamNext:
		sourceID, _ := Ref(mustGet(ds, root, AttrSource))
		source, err := Reconstruct(ds, sourceID)
		if err != nil {
			return nil, err
		}
		return StreamNext{Source: source}, nil
	case TypeStreamClose:
		sourceID, _ := Ref(mustGet(ds, root, AttrSource))
		source, err := Reconstruct(ds, sourceID)
		if err != nil {
			return nil, err
		}
		return StreamClose{Source: source}, nil
	default:
		return nil, &MalformedError{Entity: root, Reason: fmt.Sprintf("unknown node type %q", nt)}
	}
}

func mustGet(ds *DatomSet, e int64, a Attr) interface{} {
	v, _ := ds.Get(e, a)
	return v
}
