package hash

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sonwh98/yin/internal/yin/ast"
)

// canonicalize produces the deterministic byte serialization of entity
// e's (attribute, value) pairs: derived datoms dropped, references
// resolved to already-computed child hashes, pairs sorted by
// attribute. Every field is length-prefixed so no value can
// be crafted to collide with a different attribute/value split.
func canonicalize(ds *ast.DatomSet, e int64, hashes map[int64]Hash) ([]byte, error) {
	datoms := ds.Datoms(e)
	pairs := make([]ast.Datom, 0, len(datoms))
	for _, d := range datoms {
		if d.IsDerived() {
			continue
		}
		pairs = append(pairs, d)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].A < pairs[j].A })

	var buf bytes.Buffer
	for _, d := range pairs {
		writeField(&buf, string(d.A))
		val, err := canonicalValue(d, hashes)
		if err != nil {
			return nil, err
		}
		writeField(&buf, val)
	}
	return buf.Bytes(), nil
}

func canonicalValue(d ast.Datom, hashes map[int64]Hash) (string, error) {
	if id, ok := ast.Ref(d.V); ok && ast.IsRef(d.A) {
		h, ok := hashes[id]
		if !ok {
			return "", fmt.Errorf("content-hash: missing hash for referenced entity %d", id)
		}
		return string(h), nil
	}
	if ids, ok := ast.RefVec(d.V); ok {
		var buf bytes.Buffer
		for _, id := range ids {
			h, ok := hashes[id]
			if !ok {
				return "", fmt.Errorf("content-hash: missing hash for referenced entity %d", id)
			}
			writeField(&buf, string(h))
		}
		return buf.String(), nil
	}
	return fmt.Sprintf("%T:%v", d.V, d.V), nil
}

func writeField(buf *bytes.Buffer, s string) {
	fmt.Fprintf(buf, "%d:", len(s))
	buf.WriteString(s)
}
