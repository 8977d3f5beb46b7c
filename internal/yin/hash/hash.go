// Package hash computes gauge-invariant Merkle content hashes over
// datom sets, with the digest algorithm a runtime parameter rather
// than a hardcoded crypto/sha256 call.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/sonwh98/yin/internal/yin/ast"
)

// Algorithm is a digest function named by the config. "sha256" is the
// default; "sha3-256" is offered as a pluggable alternative.
type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	SHA3256 Algorithm = "sha3-256"
)

func digest(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case "", SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case SHA3256:
		sum := sha3.Sum256(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
}

// prefix returns the "sha256"/"sha3-256" name that format puts before
// the ':' of a hash string.
func prefix(algo Algorithm) string {
	if algo == "" {
		return string(SHA256)
	}
	return string(algo)
}

// Hash is a content hash string of the form "<algo>:<hex>".
type Hash string

func format(algo Algorithm, sum []byte) Hash {
	return Hash(fmt.Sprintf("%s:%s", prefix(algo), hex.EncodeToString(sum)))
}

// ContentHashes computes {eid -> hash} for every entity in ds, using
// algo (default sha256 when empty). It requires a topological
// (leaves-first) traversal and fails with *CyclicDependencyError on a
// cycle.
func ContentHashes(ds *ast.DatomSet, algo Algorithm) (map[int64]Hash, error) {
	order, err := topoSort(ds)
	if err != nil {
		return nil, err
	}

	hashes := make(map[int64]Hash, len(order))
	for _, e := range order {
		canon, err := canonicalize(ds, e, hashes)
		if err != nil {
			return nil, err
		}
		sum, err := digest(algo, canon)
		if err != nil {
			return nil, err
		}
		hashes[e] = format(algo, sum)
	}
	return hashes, nil
}

// topoSort returns entities in leaves-first order (every entity after
// all entities it references) via recursive DFS with cycle detection.
func topoSort(ds *ast.DatomSet) ([]int64, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[int64]int)
	var order []int64

	entities := ds.Entities()
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	var visit func(e int64) error
	visit = func(e int64) error {
		switch state[e] {
		case done:
			return nil
		case visiting:
			return &CyclicDependencyError{Entity: e}
		}
		state[e] = visiting
		for _, child := range children(ds, e) {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[e] = done
		order = append(order, e)
		return nil
	}

	for _, e := range entities {
		if err := visit(e); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func children(ds *ast.DatomSet, e int64) []int64 {
	var out []int64
	for _, d := range ds.Datoms(e) {
		if d.IsDerived() {
			continue
		}
		if id, ok := ast.Ref(d.V); ok && ast.IsRef(d.A) {
			out = append(out, id)
		}
		if ids, ok := ast.RefVec(d.V); ok {
			out = append(out, ids...)
		}
	}
	return out
}
