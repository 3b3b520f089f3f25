package sandbox

import (
	"fmt"
	"sort"
	"strings"
)

// Builtin names the host primitives a Surface may permit.
const (
	BuiltinPrint   = "print"
	BuiltinSleep   = "sleep"
	BuiltinSpawn   = "spawn"
	BuiltinGather  = "gather"
	BuiltinRequire = "require"
)

// Surface declares the capability surface for a run: which host builtins are
// installed, which module names require() may resolve, and which modules are
// pre-bound into the namespace without an explicit require.
//
// The zero value denies everything. Permitted names are additive over that
// empty default, never subtractive from a larger one, so evolving a surface
// cannot silently reintroduce a capability.
//
// A Surface is read-only during a run and safely shared across concurrent
// runs.
type Surface struct {
	// Builtins lists the permitted host primitives (see the Builtin
	// constants).
	Builtins []string

	// Modules lists the module names require() may load.
	Modules []string

	// Prebound lists modules bound into the namespace under their own name
	// before the script starts. Every prebound name must also appear in
	// Modules.
	Prebound []string
}

// DefaultSurface returns the curated default surface: all host builtins, the
// built-in module set, and json/math pre-bound.
func DefaultSurface() *Surface {
	return &Surface{
		Builtins: []string{BuiltinPrint, BuiltinSleep, BuiltinSpawn, BuiltinGather, BuiltinRequire},
		Modules:  builtinModuleNames(),
		Prebound: []string{"json", "math"},
	}
}

// knownBuiltins is the full set of installable host primitives.
var knownBuiltins = map[string]bool{
	BuiltinPrint:   true,
	BuiltinSleep:   true,
	BuiltinSpawn:   true,
	BuiltinGather:  true,
	BuiltinRequire: true,
}

// validate checks the surface against the resolvable module set.
// Returns ErrConfiguration on unknown builtins, unknown modules, or prebound
// names missing from Modules.
func (s *Surface) validate(modules map[string]ModuleFunc) error {
	for _, name := range s.Builtins {
		if !knownBuiltins[name] {
			return fmt.Errorf("%w: unknown builtin %q", ErrConfiguration, name)
		}
	}
	for _, name := range s.Modules {
		if _, ok := modules[name]; !ok {
			return fmt.Errorf("%w: module %q has no registered constructor", ErrConfiguration, name)
		}
	}
	allowed := s.moduleSet()
	for _, name := range s.Prebound {
		if !allowed[name] {
			return fmt.Errorf("%w: prebound module %q is not in the Modules allow-list", ErrConfiguration, name)
		}
	}
	return nil
}

// moduleSet returns the Modules allow-list as a set.
func (s *Surface) moduleSet() map[string]bool {
	out := make(map[string]bool, len(s.Modules))
	for _, m := range s.Modules {
		out[m] = true
	}
	return out
}

// allowedModules returns the Modules allow-list sorted, for denial messages.
func (s *Surface) allowedModules() []string {
	out := append([]string(nil), s.Modules...)
	sort.Strings(out)
	return out
}

// deniesModule reports whether a require for name must be refused, and why.
// Relative and path-like requests are always denied regardless of the
// allow-list contents.
func (s *Surface) deniesModule(name string) *CapabilityError {
	if name == "" || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return &CapabilityError{Op: "require", Name: name, Allowed: s.allowedModules()}
	}
	if !s.moduleSet()[name] {
		return &CapabilityError{Op: "require", Name: name, Allowed: s.allowedModules()}
	}
	return nil
}
