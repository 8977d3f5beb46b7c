package hash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonwh98/yin/internal/yin/ast"
)

// TestGaugeInvariance builds the same AST twice, with entity ids drawn
// from disjoint ranges, and asserts the root content hashes agree.
func TestGaugeInvariance(t *testing.T) {
	build := func() ast.Node {
		return ast.Application{
			Operator: ast.Variable{Name: "+"},
			Operands: []ast.Node{ast.Literal{Value: 10.0}, ast.Literal{Value: 20.0}},
		}
	}

	// NewProjector always allocates from -1, so the second set's ids
	// (and every reference to them) are shifted down by 1000.
	const shift = -1000
	root1, datoms1 := ast.NewProjector(0).Project(build())
	root2, datoms2 := ast.NewProjector(0).Project(build())
	root2 += shift
	for i := range datoms2 {
		d := &datoms2[i]
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

	ds1 := ast.NewDatomSet(datoms1)
	ds2 := ast.NewDatomSet(datoms2)

	h1, err := ContentHashes(ds1, SHA256)
	require.NoError(t, err)
	h2, err := ContentHashes(ds2, SHA256)
	require.NoError(t, err)

	require.Equal(t, h1[root1], h2[root2])
}

func TestCyclicDependencyFails(t *testing.T) {
	// Hand-build a two-entity cycle: 1 references 2 as its body, 2
	// references 1 as its operator — this cannot occur via Project,
	// only via a malformed externally-supplied datom set.
	datoms := []ast.Datom{
		{E: 1, A: ast.AttrType, V: ast.TypeLambda},
		{E: 1, A: ast.AttrParams, V: []string{}},
		{E: 1, A: ast.AttrBody, V: int64(2)},
		{E: 2, A: ast.AttrType, V: ast.TypeApplication},
		{E: 2, A: ast.AttrOperator, V: int64(1)},
		{E: 2, A: ast.AttrOperands, V: []int64{}},
	}
	ds := ast.NewDatomSet(datoms)
	_, err := ContentHashes(ds, SHA256)
	require.Error(t, err)
	var cycleErr *CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
}

func TestAnnotateRoundTrip(t *testing.T) {
	root, datoms := ast.Project(ast.Literal{Value: 1.0})
	ds := ast.NewDatomSet(datoms)
	hashes, err := ContentHashes(ds, "")
	require.NoError(t, err)
	annotated := Annotate(hashes, 1)
	require.Len(t, annotated, 1)
	require.Equal(t, root, annotated[0].E)
	require.True(t, annotated[0].IsDerived())
}
