// Package cesk defines the contract shared by all four VM backends:
// Step/Run plus the Halted/Blocked/Value/Steps observers. Each backend
// (treevm, graphvm, regvm, stackvm) implements this interface so host
// call sites can switch backend without changing call sites. The
// interface has no eval or load-program method and no control,
// environment, store or continuation observer; a program is bound to a
// VM by the backend's constructor.
package cesk

import "github.com/sonwh98/yin/internal/yin/value"

// VM is the contract every backend satisfies.
type VM interface {
	// Step advances the machine by exactly one transition.
	Step() error

	// Run steps until Halted() or Blocked(), driving the scheduler's
	// wake check whenever the active computation blocks.
	Run() error

	// Halted reports whether the machine has produced a final Value
	// and the run-queue is empty.
	Halted() bool

	// Blocked reports whether the active computation is parked and no
	// run-queue entry is ready to resume.
	Blocked() bool

	// Value returns the current result; meaningful once Halted.
	Value() value.Value

	// Steps returns the number of Step calls executed so far.
	Steps() int
}
