package ast

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectionRootIsMax(t *testing.T) {
	n := Application{
		Operator: Variable{Name: "+"},
		Operands: []Node{Literal{Value: 10.0}, Literal{Value: 20.0}},
	}
	rootID, datoms := Project(n)
	require.NotEmpty(t, datoms)

	max := rootID
	for _, d := range datoms {
		if d.E > max {
			max = d.E
		}
	}
	if max != rootID {
		t.Errorf("root id %d is not the maximum entity id (max=%d)", rootID, max)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		node Node
	}{
		{"literal", Literal{Value: 42.0}},
		{"variable", Variable{Name: "x"}},
		{"lambda", Lambda{Params: []string{"x", "y"}, Body: Application{
			Operator: Variable{Name: "+"},
			Operands: []Node{Variable{Name: "x"}, Variable{Name: "y"}},
		}}},
		{"if", If{
			Test:       Literal{Value: false},
			Consequent: Literal{Value: 1.0},
			Alternate:  Literal{Value: 2.0},
		}},
		{"stream-roundtrip", StreamPut{
			Target: StreamMake{Buffer: nil},
			Val:    Literal{Value: "hi"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rootID, datoms := Project(tc.node)
			ds := NewDatomSet(datoms)
			require.NoError(t, ds.Validate())

			got, err := Reconstruct(ds, rootID)
			require.NoError(t, err)
			if !reflect.DeepEqual(got, tc.node) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, tc.node)
			}
		})
	}
}

func TestProjectionDeterministic(t *testing.T) {
	n := Lambda{Params: []string{"x"}, Body: Variable{Name: "x"}}
	id1, d1 := Project(n)
	id2, d2 := Project(n)
	if id1 != id2 {
		t.Fatalf("non-deterministic root id: %d vs %d", id1, id2)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("non-deterministic datoms")
	}
}

func TestDatomSetRoot(t *testing.T) {
	n := Application{Operator: Variable{Name: "f"}, Operands: []Node{Literal{Value: 1.0}}}
	rootID, datoms := Project(n)
	ds := NewDatomSet(datoms)
	got, err := ds.Root()
	require.NoError(t, err)
	if got != rootID {
		t.Errorf("Root() = %d, want %d", got, rootID)
	}
}
