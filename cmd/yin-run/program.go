package main

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
)

// decodeNode turns the map-based JSON a front-end parser would emit
// into an ast.Node: front-end parsers are out of scope, so this is the
// minimal boundary decoder a host CLI needs to accept their output.
// Tags match ast.NodeType strings.
func decodeNode(raw interface{}) (ast.Node, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a node object, got %T", raw)
	}
	tag, _ := m["type"].(string)
	switch ast.NodeType(tag) {
	case ast.TypeLiteral:
		return ast.Literal{Value: m["value"]}, nil

	case ast.TypeVariable:
		name, _ := m["name"].(string)
		return ast.Variable{Name: name}, nil

	case ast.TypeLambda:
		params, err := decodeStrings(m["params"])
		if err != nil {
			return nil, err
		}
		body, err := decodeNode(m["body"])
		if err != nil {
			return nil, fmt.Errorf("lambda body: %w", err)
		}
		return ast.Lambda{Params: params, Body: body}, nil

	case ast.TypeApplication:
		operator, err := decodeNode(m["operator"])
		if err != nil {
			return nil, fmt.Errorf("application operator: %w", err)
		}
		operandsRaw, _ := m["operands"].([]interface{})
		operands := make([]ast.Node, len(operandsRaw))
		for i, o := range operandsRaw {
			operands[i], err = decodeNode(o)
			if err != nil {
				return nil, fmt.Errorf("application operand %d: %w", i, err)
			}
		}
		return ast.Application{Operator: operator, Operands: operands}, nil

	case ast.TypeIf:
		test, err := decodeNode(m["test"])
		if err != nil {
			return nil, fmt.Errorf("if test: %w", err)
		}
		consequent, err := decodeNode(m["consequent"])
		if err != nil {
			return nil, fmt.Errorf("if consequent: %w", err)
		}
		alternate, err := decodeNode(m["alternate"])
		if err != nil {
			return nil, fmt.Errorf("if alternate: %w", err)
		}
		return ast.If{Test: test, Consequent: consequent, Alternate: alternate}, nil

	case ast.TypeGensym:
		prefix, _ := m["prefix"].(string)
		return ast.Gensym{Prefix: prefix}, nil

	case ast.TypeStoreGet:
		key, _ := m["key"].(string)
		return ast.StoreGet{Key: key}, nil

	case ast.TypeStorePut:
		key, _ := m["key"].(string)
		val, err := decodeNode(m["val"])
		if err != nil {
			return nil, fmt.Errorf("store-put val: %w", err)
		}
		return ast.StorePut{Key: key, Val: val}, nil

	case ast.TypeStreamMake:
		return ast.StreamMake{Buffer: m["buffer"]}, nil

	case ast.TypeStreamPut:
		target, err := decodeNode(m["target"])
		if err != nil {
			return nil, fmt.Errorf("stream-put target: %w", err)
		}
		val, err := decodeNode(m["val"])
		if err != nil {
			return nil, fmt.Errorf("stream-put val: %w", err)
		}
		return ast.StreamPut{Target: target, Val: val}, nil

	case ast.TypeStreamCursor:
		source, err := decodeNode(m["source"])
		if err != nil {
			return nil, fmt.Errorf("stream-cursor source: %w", err)
		}
		return ast.StreamCursor{Source: source}, nil

	case ast.TypeStreamNext:
		source, err := decodeNode(m["source"])
		if err != nil {
			return nil, fmt.Errorf("stream-next source: %w", err)
		}
		return ast.StreamNext{Source: source}, nil

	case ast.TypeStreamClose:
		source, err := decodeNode(m["source"])
		if err != nil {
			return nil, fmt.Errorf("stream-close source: %w", err)
		}
		return ast.StreamClose{Source: source}, nil

	default:
		return nil, fmt.Errorf("unknown node type %q", tag)
	}
}

func decodeStrings(raw interface{}) ([]string, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a string array, got %T", raw)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string at index %d, got %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}
