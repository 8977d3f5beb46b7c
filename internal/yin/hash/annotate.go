package hash

import "github.com/sonwh98/yin/internal/yin/ast"

// Annotate returns derived (e, yin/content-hash, hash, t, 1) datoms for
// every entry in hashes, to be appended to a DatomSet on request rather
// than stored inline with the entities they describe.
func Annotate(hashes map[int64]Hash, t int64) []ast.Datom {
	out := make([]ast.Datom, 0, len(hashes))
	for e, h := range hashes {
		out = append(out, ast.Datom{
			E: e,
			A: ast.AttrContentHash,
			V: string(h),
			T: t,
			M: ast.DerivedMeta,
		})
	}
	return out
}
