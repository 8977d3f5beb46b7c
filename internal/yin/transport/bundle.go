// Package transport moves programs and captured continuations between
// independent gauges: separate database instances, each with its own
// local entity-id space. A Bundle keys every entity by its content
// hash rather than by local id, so the same program produces the same
// bundle regardless of which gauge it was exported from; importing
// allocates a fresh local id for every entity the way ast.Projector
// does, so the root again lands on the largest (least negative) id.
package transport

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/hash"
)

// HashedDatom is one entity's non-derived attributes with every
// reference replaced by the referent's content hash instead of a
// local entity id.
type HashedDatom struct {
	Attrs map[ast.Attr]interface{} // value is a scalar, hash.Hash, or []hash.Hash
}

// Bundle is a content-addressed, gauge-independent program.
type Bundle struct {
	Datoms map[hash.Hash]HashedDatom
}

// ExportBundle hashes every entity reachable from root and rewrites
// their references into the hash-keyed form. It returns the bundle and
// root's own hash, the bundle's entry point.
func ExportBundle(ds *ast.DatomSet, root int64, algo hash.Algorithm) (*Bundle, hash.Hash, error) {
	hashes, err := hash.ContentHashes(ds, algo)
	if err != nil {
		return nil, "", err
	}
	rootHash, ok := hashes[root]
	if !ok {
		return nil, "", fmt.Errorf("transport: root entity %d has no computed hash", root)
	}
	bundle := &Bundle{Datoms: make(map[hash.Hash]HashedDatom)}
	for _, e := range ds.Entities() {
		h, ok := hashes[e]
		if !ok {
			continue
		}
		attrs := make(map[ast.Attr]interface{})
		for _, d := range ds.Datoms(e) {
			if d.IsDerived() {
				continue
			}
			if id, ok := ast.Ref(d.V); ok && ast.IsRef(d.A) {
				childHash, ok := hashes[id]
				if !ok {
					return nil, "", fmt.Errorf("transport: entity %d references unhashed entity %d", e, id)
				}
				attrs[d.A] = childHash
				continue
			}
			if ids, ok := ast.RefVec(d.V); ok {
				childHashes := make([]hash.Hash, len(ids))
				for i, id := range ids {
					childHash, ok := hashes[id]
					if !ok {
						return nil, "", fmt.Errorf("transport: entity %d references unhashed entity %d", e, id)
					}
					childHashes[i] = childHash
				}
				attrs[d.A] = childHashes
				continue
			}
			attrs[d.A] = d.V
		}
		bundle.Datoms[h] = HashedDatom{Attrs: attrs}
	}
	return bundle, rootHash, nil
}

// ImportBundle performs topological creation of bundle's entities into
// the caller's local id space: known maps a content hash to an entity
// id the caller already has locally (possibly empty on a first
// import), and nextID is where fresh negative tempid allocation starts
// for every hash known has no entry for. A hash seen twice, whether
// because it was already in known or because two entities in this
// bundle reference it, gets the same local id both times, so shared
// substructure stays shared after import. It returns the new datoms,
// the local root id, the hash-to-id table extended with every id this
// call allocated, and the next unused tempid for a subsequent import
// into the same local id space to continue from.
func ImportBundle(bundle *Bundle, rootHash hash.Hash, nextID int64, known map[hash.Hash]int64) (*ast.DatomSet, int64, map[hash.Hash]int64, int64, error) {
	ids := make(map[hash.Hash]int64, len(known))
	for h, id := range known {
		ids[h] = id
	}
	next := nextID
	var datoms []ast.Datom

	var assign func(h hash.Hash) (int64, error)
	assign = func(h hash.Hash) (int64, error) {
		if id, ok := ids[h]; ok {
			return id, nil
		}
		hd, ok := bundle.Datoms[h]
		if !ok {
			return 0, fmt.Errorf("transport: bundle has no entity for hash %s", h)
		}
		id := next
		next--
		ids[h] = id
		for a, v := range hd.Attrs {
			switch vv := v.(type) {
			case hash.Hash:
				childID, err := assign(vv)
				if err != nil {
					return 0, err
				}
				datoms = append(datoms, ast.Datom{E: id, A: a, V: childID, T: nextID})
			case []hash.Hash:
				childIDs := make([]int64, len(vv))
				for i, ch := range vv {
					childID, err := assign(ch)
					if err != nil {
						return 0, err
					}
					childIDs[i] = childID
				}
				datoms = append(datoms, ast.Datom{E: id, A: a, V: childIDs, T: nextID})
			default:
				datoms = append(datoms, ast.Datom{E: id, A: a, V: v, T: nextID})
			}
		}
		return id, nil
	}

	rootID, err := assign(rootHash)
	if err != nil {
		return nil, 0, nil, 0, err
	}
	return ast.NewDatomSet(datoms), rootID, ids, next, nil
}
