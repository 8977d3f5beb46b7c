package transport

import (
	"testing"

	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/graphvm"
	"github.com/sonwh98/yin/internal/yin/hash"
	"github.com/sonwh98/yin/internal/yin/value"
	"github.com/stretchr/testify/require"
)

func TestBundleRoundTripPreservesEvaluation(t *testing.T) {
	program := ast.Application{
		Operator: ast.Lambda{
			Params: []string{"x", "y"},
			Body: ast.Application{
				Operator: ast.Variable{Name: "+"},
				Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Variable{Name: "y"}},
			},
		},
		Operands: []ast.Node{ast.Literal{Value: 3.0}, ast.Literal{Value: 5.0}},
	}
	root, datoms := ast.Project(program)
	ds := ast.NewDatomSet(datoms)

	bundle, rootHash, err := ExportBundle(ds, root, hash.SHA256)
	require.NoError(t, err)

	importedDS, importedRoot, _, _, err := ImportBundle(bundle, rootHash, -1, nil)
	require.NoError(t, err)

	vmA := graphvm.New(ds, root)
	require.NoError(t, vmA.Run())
	vmB := graphvm.New(importedDS, importedRoot)
	require.NoError(t, vmB.Run())

	require.Equal(t, vmA.Value(), vmB.Value())
}

func TestBundleIsGaugeInvariant(t *testing.T) {
	program := func() ast.Node {
		return ast.If{
			Test:       ast.Literal{Value: true},
			Consequent: ast.Literal{Value: 1.0},
			Alternate:  ast.Literal{Value: 2.0},
		}
	}

	// NewProjector always allocates from -1, so the second set's ids
	// (and every reference to them) are shifted down by 500.
	const shift = -500
	rootA, datomsA := ast.NewProjector(0).Project(program())
	rootB, datomsB := ast.NewProjector(0).Project(program())
	rootB += shift
	for i := range datomsB {
		d := &datomsB[i]
		d.E += shift
		if id, ok := ast.Ref(d.V); ok && ast.IsRef(d.A) {
			d.V = id + shift
		}
		if ids, ok := ast.RefVec(d.V); ok {
			moved := make([]int64, len(ids))
			for j, id := range ids {
				moved[j] = id + shift
			}
			d.V = moved
		}
	}

	bundleA, hashA, err := ExportBundle(ast.NewDatomSet(datomsA), rootA, hash.SHA256)
	require.NoError(t, err)
	bundleB, hashB, err := ExportBundle(ast.NewDatomSet(datomsB), rootB, hash.SHA256)
	require.NoError(t, err)

	require.Equal(t, hashA, hashB)
	require.Equal(t, len(bundleA.Datoms), len(bundleB.Datoms))
}

func TestExportImportClosurePreservesCapturedBindings(t *testing.T) {
	closure := &value.Closure{
		Params: []string{"x"},
		Body:   ast.Application{Operator: ast.Variable{Name: "+"}, Operands: []ast.Node{ast.Variable{Name: "x"}, ast.Variable{Name: "captured"}}},
		Env:    value.NewEnv().Extend("captured", value.Number(10)),
	}

	bundle, err := ExportClosure(nil, closure, hash.SHA256)
	require.NoError(t, err)

	imported, ds, err := ImportClosure(bundle, 0)
	require.NoError(t, err)

	vm := graphvm.New(ds, imported.BodyID)
	v, ok := imported.Env.Lookup("captured")
	require.True(t, ok)
	require.Equal(t, value.Number(10), v)
	_ = vm
}

// TestImportBundleReusesKnownEntitiesAndAdvancesCounter checks that a
// second import into the same local id space, given the hash-to-id
// table and counter the first import returned, neither collides with
// the first import's ids nor re-creates an entity the caller already
// has locally.
func TestImportBundleReusesKnownEntitiesAndAdvancesCounter(t *testing.T) {
	program := ast.Application{
		Operator: ast.Variable{Name: "+"},
		Operands: []ast.Node{ast.Literal{Value: 1.0}, ast.Literal{Value: 2.0}},
	}
	root, datoms := ast.Project(program)
	bundle, rootHash, err := ExportBundle(ast.NewDatomSet(datoms), root, hash.SHA256)
	require.NoError(t, err)

	firstDS, firstRoot, known, nextID, err := ImportBundle(bundle, rootHash, -1, nil)
	require.NoError(t, err)

	secondDS, secondRoot, known, nextID, err := ImportBundle(bundle, rootHash, nextID, known)
	require.NoError(t, err)

	require.Equal(t, firstRoot, secondRoot, "re-importing a known hash must reuse its local id")
	require.Empty(t, secondDS.All(), "no new datoms should be created for already-known content")
	require.NotEmpty(t, firstDS.All())
	require.Contains(t, known, rootHash)
	require.Less(t, nextID, firstRoot, "the counter must advance past every id the first import allocated")

	otherProgram := ast.Application{
		Operator: ast.Variable{Name: "+"},
		Operands: []ast.Node{ast.Literal{Value: 3.0}, ast.Literal{Value: 4.0}},
	}
	otherRoot, otherDatoms := ast.Project(otherProgram)
	otherBundle, otherHash, err := ExportBundle(ast.NewDatomSet(otherDatoms), otherRoot, hash.SHA256)
	require.NoError(t, err)

	thirdDS, thirdRoot, _, _, err := ImportBundle(otherBundle, otherHash, nextID, known)
	require.NoError(t, err)
	require.NotEmpty(t, thirdDS.All())
	for _, e := range firstDS.Entities() {
		require.NotEqual(t, thirdRoot, e, "a fresh entity must not collide with an earlier import's ids")
	}
}
