// Package module implements an explicitly-constructed-per-VM registry
// of named primitive bindings, plus the built-in "yin/primitives"
// module of arithmetic, comparison, and collection operations every
// VM resolves unqualified symbols against.
package module

import "github.com/sonwh98/yin/internal/yin/value"

// PrimitivesModule is the reserved name of the built-in operation set,
// resolved by bare (non-namespaced) symbols such as "+" — distinct
// from user-registered modules, which are namespaced ("stream/put!").
const PrimitivesModule = "yin/primitives"

// Registry maps module name to exported member name to primitive.
// Registration is serialised by the caller: construct one Registry per
// VM and register into it before use, rather than sharing a single
// global across concurrent VM instances.
type Registry struct {
	modules map[string]map[string]value.NativeFunc
}

// NewRegistry returns a registry pre-populated with yin/primitives.
func NewRegistry() *Registry {
	r := &Registry{modules: make(map[string]map[string]value.NativeFunc)}
	r.Register(PrimitivesModule, builtins())
	return r
}

// Register adds members to a module, replacing any existing member of
// the same name; members registered earlier under other names stay.
func (r *Registry) Register(moduleName string, members map[string]value.NativeFunc) {
	if r.modules[moduleName] == nil {
		r.modules[moduleName] = make(map[string]value.NativeFunc, len(members))
	}
	for name, fn := range members {
		r.modules[moduleName][name] = fn
	}
}

// Lookup resolves a namespaced symbol ("module/member") against
// registered modules, or a bare symbol against yin/primitives. Returns
// ok=false, never an error: an unresolved symbol falls through to
// "nil" at the VM level rather than halting it.
func (r *Registry) Lookup(symbol string) (value.Value, bool) {
	moduleName, member, namespaced := splitSymbol(symbol)
	if !namespaced {
		moduleName, member = PrimitivesModule, symbol
	}
	members, ok := r.modules[moduleName]
	if !ok {
		return value.Value{}, false
	}
	fn, ok := members[member]
	if !ok {
		return value.Value{}, false
	}
	return value.NativeOf(symbol, fn), true
}

func splitSymbol(symbol string) (moduleName, member string, ok bool) {
	for i := len(symbol) - 1; i > 0; i-- {
		if symbol[i] == '/' {
			return symbol[:i], symbol[i+1:], true
		}
	}
	return "", "", false
}
