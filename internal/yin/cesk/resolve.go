package cesk

import (
	"github.com/sonwh98/yin/internal/yin/module"
	"github.com/sonwh98/yin/internal/yin/value"
)

// Resolve implements the variable resolution chain shared by every
// backend: local env, then global store, then the module registry
// (which itself distinguishes bare primitive names from namespaced
// module members). Every tier uses membership, never truthiness, so a
// binding to false or nil is a hit and short-circuits the remaining
// tiers.
func Resolve(name string, env value.Env, store *Store, registry *module.Registry) (value.Value, bool) {
	if v, ok := env.Lookup(name); ok {
		return v, true
	}
	if v, ok := store.Get(name); ok {
		return v, true
	}
	if v, ok := registry.Lookup(name); ok {
		return v, true
	}
	return value.Value{}, false
}
