package transport

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/hash"
	"github.com/sonwh98/yin/internal/yin/value"
)

// ExportedBinding is one captured environment entry, recursively
// bundled if it is itself a closure. Stream/cursor references,
// continuations, effects, and native functions are gauge-local and
// cannot be exported; ExportClosure drops them rather than failing,
// since a resumed continuation that never dereferences a dropped
// binding is still valid.
type ExportedBinding struct {
	Kind    value.Kind
	Bool    bool
	Number  float64
	Str     string
	Closure *ClosureBundle
}

// ClosureBundle is a closure's parameter list, its body keyed by
// content hash, and a snapshot of the bindings its environment closed
// over — enough to reconstruct an equivalent closure in another gauge.
type ClosureBundle struct {
	Params   []string
	Body     *Bundle
	Root     hash.Hash
	Bindings map[string]ExportedBinding
}

func exportable(k value.Kind) bool {
	switch k {
	case value.KindNil, value.KindBool, value.KindNumber, value.KindString, value.KindSymbol, value.KindKeyword, value.KindClosure:
		return true
	default:
		return false
	}
}

// ExportClosure bundles c for transport. ds must contain c's body when
// c was produced by the datom-graph backend (BodyID set); tree-walking
// closures carry their body node directly and are projected fresh.
func ExportClosure(ds *ast.DatomSet, c *value.Closure, algo hash.Algorithm) (*ClosureBundle, error) {
	var bodyDS *ast.DatomSet
	var bodyRoot int64
	if node, ok := c.Body.(ast.Node); ok {
		root, datoms := ast.Project(node)
		bodyDS = ast.NewDatomSet(datoms)
		bodyRoot = root
	} else if ds != nil {
		bodyDS = ds
		bodyRoot = c.BodyID
	} else {
		return nil, fmt.Errorf("transport: closure has neither a tree body nor a datom set to export from")
	}

	bundle, rootHash, err := ExportBundle(bodyDS, bodyRoot, algo)
	if err != nil {
		return nil, err
	}

	bindings := make(map[string]ExportedBinding)
	for name, v := range c.Env.All() {
		if !exportable(v.Kind) {
			continue
		}
		if v.Kind == value.KindClosure {
			nested, err := ExportClosure(ds, v.Closure, algo)
			if err != nil {
				return nil, fmt.Errorf("transport: exporting binding %q: %w", name, err)
			}
			bindings[name] = ExportedBinding{Kind: value.KindClosure, Closure: nested}
			continue
		}
		bindings[name] = ExportedBinding{Kind: v.Kind, Bool: v.Bool, Number: v.Number, Str: v.Str}
	}

	return &ClosureBundle{Params: c.Params, Body: bundle, Root: rootHash, Bindings: bindings}, nil
}

// ImportClosure reconstructs a datom-graph closure from cb: the
// returned DatomSet holds the closure's body under rootID plus every
// nested closure's body, the returned Closure's BodyID is rootID, and
// its Env holds the reconstructed bindings. A single hash-to-id table
// and tempid counter are threaded through the whole recursive import
// so a hash shared between the outer closure and a nested one (or
// between two nested ones) resolves to the same local entity both
// places rather than colliding with an independently-numbered import.
func ImportClosure(cb *ClosureBundle, nextID int64) (*value.Closure, *ast.DatomSet, error) {
	closure, ds, _, _, err := importClosure(cb, nextID, make(map[hash.Hash]int64))
	if err != nil {
		return nil, nil, err
	}
	return closure, ds, nil
}

func importClosure(cb *ClosureBundle, nextID int64, known map[hash.Hash]int64) (*value.Closure, *ast.DatomSet, map[hash.Hash]int64, int64, error) {
	ds, rootID, known, nextID, err := ImportBundle(cb.Body, cb.Root, nextID, known)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	env := value.NewEnv()
	for name, eb := range cb.Bindings {
		var v value.Value
		if eb.Closure != nil {
			nested, nestedDS, updatedKnown, updatedNext, err := importClosure(eb.Closure, nextID, known)
			if err != nil {
				return nil, nil, nil, 0, fmt.Errorf("transport: importing binding %q: %w", name, err)
			}
			known, nextID = updatedKnown, updatedNext
			ds.Add(nestedDS.All()...)
			v = value.ClosureOf(nested)
		} else {
			v = value.Value{Kind: eb.Kind, Bool: eb.Bool, Number: eb.Number, Str: eb.Str}
		}
		env = env.Extend(name, v)
	}
	return &value.Closure{Params: cb.Params, Env: env, BodyID: rootID}, ds, known, nextID, nil
}
