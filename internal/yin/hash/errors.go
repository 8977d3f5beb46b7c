package hash

import "fmt"

// CyclicDependencyError is returned when content hashing encounters a
// cycle in the AST graph.
type CyclicDependencyError struct {
	Entity int64
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic-dependency: entity %d participates in a reference cycle", e.Entity)
}
