package ast

import "fmt"

// MalformedError describes a structurally invalid program: an unknown
// node type, a missing required attribute, or a dangling reference.
// Always fatal.
type MalformedError struct {
	Entity  int64
	Reason  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed program at entity %d: %s", e.Entity, e.Reason)
}

func malformed(entity int64, format string, args ...interface{}) error {
	return &MalformedError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}
