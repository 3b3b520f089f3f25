package sandbox

import (
	"context"
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/abshake96/ez-ptc/tool"
)

// namespace wires one run's VM: tool wrappers, allow-listed builtins,
// pre-bound modules, and the require resolver. All state is run-local.
type namespace struct {
	ctx     context.Context
	vm      *goja.Runtime
	surface *Surface
	tools   *tool.Set
	icpt    *interceptor
	modules map[string]ModuleFunc

	// loaded memoizes module instances within the run. Resolution itself is
	// a pure lookup against the fixed constructor table.
	loaded map[string]goja.Value
}

// build populates the VM. Errors here are configuration or harness defects,
// never script faults.
func (ns *namespace) build() error {
	ns.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	ns.loaded = make(map[string]goja.Value)

	if err := ns.installTools(); err != nil {
		return err
	}
	if err := ns.installBuiltins(); err != nil {
		return err
	}
	return ns.installPrebound()
}

// installTools binds every tool as a global function of the same name.
func (ns *namespace) installTools() error {
	if ns.tools == nil {
		return nil
	}
	for _, t := range ns.tools.All() {
		if err := ns.vm.Set(t.Name(), ns.toolWrapper(t)); err != nil {
			return fmt.Errorf("binding tool %q: %w", t.Name(), err)
		}
	}
	return nil
}

// toolWrapper returns the goja function for one tool. A plain call is a
// launch-and-wait on the invocation future; faults surface as thrown script
// errors carrying the Go error.
func (ns *namespace) toolWrapper(t *tool.Tool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := exportArgs(call.Arguments)
		p, err := ns.icpt.launch(t, args)
		if err != nil {
			panic(ns.vm.NewGoError(err))
		}
		val, err := p.wait(ns.ctx)
		if err != nil {
			panic(ns.vm.NewGoError(err))
		}
		return ns.vm.ToValue(val)
	}
}

func (ns *namespace) installBuiltins() error {
	for _, name := range ns.surface.Builtins {
		var impl any
		switch name {
		case BuiltinPrint:
			impl = func(call goja.FunctionCall) goja.Value {
				ns.icpt.print(call.Arguments)
				return goja.Undefined()
			}
		case BuiltinSleep:
			impl = func(ms int64) error { return sleepFor(ns.ctx, ms) }
		case BuiltinSpawn:
			impl = ns.spawn
		case BuiltinGather:
			impl = ns.gather
		case BuiltinRequire:
			impl = ns.require
		default:
			return fmt.Errorf("%w: unknown builtin %q", ErrConfiguration, name)
		}
		if err := ns.vm.Set(name, impl); err != nil {
			return fmt.Errorf("binding builtin %q: %w", name, err)
		}
	}
	return nil
}

// installPrebound resolves the pre-bound modules and binds them under their
// own names, so scripts can use them without an explicit require.
func (ns *namespace) installPrebound() error {
	for _, name := range ns.surface.Prebound {
		val, err := ns.resolveModule(name)
		if err != nil {
			return fmt.Errorf("prebinding module %q: %w", name, err)
		}
		if err := ns.vm.Set(name, val); err != nil {
			return fmt.Errorf("binding module %q: %w", name, err)
		}
	}
	return nil
}

// resolveModule looks the name up in the fixed constructor table and
// instantiates it once per run.
func (ns *namespace) resolveModule(name string) (goja.Value, error) {
	if val, ok := ns.loaded[name]; ok {
		return val, nil
	}
	ctor, ok := ns.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: module %q has no registered constructor", ErrConfiguration, name)
	}
	val, err := ctor(ns.ctx, ns.vm)
	if err != nil {
		return nil, err
	}
	ns.loaded[name] = val
	return val, nil
}

// require is the script-visible module loader. Names outside the allow-list,
// and any relative or path-like request, fail with a capability denial that
// enumerates the permitted set.
func (ns *namespace) require(call goja.FunctionCall) goja.Value {
	var name string
	if len(call.Arguments) > 0 {
		name = call.Arguments[0].String()
	}
	if denial := ns.surface.deniesModule(name); denial != nil {
		panic(ns.vm.NewGoError(denial))
	}
	val, err := ns.resolveModule(name)
	if err != nil {
		panic(ns.vm.NewGoError(err))
	}
	return val
}

// spawn launches a tool call concurrently: spawn("name", args...) returns a
// Handle the script can wait on, directly or via gather.
func (ns *namespace) spawn(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(ns.vm.NewTypeError("spawn: tool name required"))
	}
	name := call.Arguments[0].String()
	t, ok := lookupTool(ns.tools, name)
	if !ok {
		denial := &CapabilityError{Op: "spawn", Name: name, Allowed: sortedToolNames(ns.tools)}
		panic(ns.vm.NewGoError(denial))
	}
	args := exportArgs(call.Arguments[1:])
	p, err := ns.icpt.launch(t, args)
	if err != nil {
		panic(ns.vm.NewGoError(err))
	}
	return ns.vm.ToValue(&Handle{p: p, ctx: ns.ctx})
}

// gather waits for spawn handles and returns their results in argument
// order; the first failure is rethrown. Accepts handles directly or a single
// array of handles.
func (ns *namespace) gather(call goja.FunctionCall) goja.Value {
	handles := make([]*Handle, 0, len(call.Arguments))
	for n, arg := range call.Arguments {
		switch ex := arg.Export().(type) {
		case *Handle:
			handles = append(handles, ex)
		case []any:
			for m, el := range ex {
				h, ok := el.(*Handle)
				if !ok {
					panic(ns.vm.NewTypeError("gather: element %d is not a spawn handle", m))
				}
				handles = append(handles, h)
			}
		default:
			panic(ns.vm.NewTypeError("gather: argument %d is not a spawn handle", n))
		}
	}
	values := make([]any, len(handles))
	for n, h := range handles {
		val, err := h.Wait()
		if err != nil {
			panic(ns.vm.NewGoError(err))
		}
		values[n] = val
	}
	return ns.vm.ToValue(values)
}

// exportArgs converts script arguments to plain Go values.
func exportArgs(args []goja.Value) []any {
	out := make([]any, len(args))
	for n, arg := range args {
		out[n] = arg.Export()
	}
	return out
}

func lookupTool(set *tool.Set, name string) (*tool.Tool, bool) {
	if set == nil {
		return nil, false
	}
	return set.Lookup(name)
}

func sortedToolNames(set *tool.Set) []string {
	if set == nil {
		return nil
	}
	names := set.Names()
	sort.Strings(names)
	return names
}
